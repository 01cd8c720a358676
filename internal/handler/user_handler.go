package handler

import (
	"net/http"
	"strings"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/container"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/middleware"
	"pathlight-web/pkg/errors"
)

// maxAvatarBytes bounds avatar uploads
const maxAvatarBytes = 5 << 20

// UserHandler proxies /api/users/*
type UserHandler struct {
	responder
	api       *apiclient.Client
	dashboard *dashboard.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(c *container.Container) *UserHandler {
	return &UserHandler{
		responder: responder{guard: c.Guard, logger: c.Logger},
		api:       c.API,
		dashboard: c.Dashboard,
	}
}

func (h *UserHandler) client(r *http.Request) *apiclient.Client {
	return h.api.For(middleware.StoreFromContext(r.Context()))
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallProfile, h.client(r).Profile(r.Context()))
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if appErr := decodeJSON(w, r, &update); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if err := validateProfileUpdate(&update); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	env := h.client(r).UpdateProfile(r.Context(), update)
	if env.OK() {
		_, tok := storeAndToken(r)
		h.dashboard.Invalidate(r.Context(), tok)
	}
	h.envelope(w, r, apiclient.CallProfile, env)
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallProfile, h.client(r).Me(r.Context()))
}

// Dashboard handles GET /api/users/dashboard through the dashboard cache
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	_, tok := storeAndToken(r)
	view, env := h.dashboard.Load(r.Context(), h.client(r), tok)
	if view == nil {
		h.envelope(w, r, apiclient.CallDashboard, env)
		return
	}
	h.json(w, http.StatusOK, EnvelopeResponse{Status: http.StatusOK, Data: mustJSON(view)})
}

// UploadAvatar handles POST /api/users/avatar (multipart, field "avatar")
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1<<10)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		h.error(w, r, errors.NewValidationError("Ảnh đại diện không hợp lệ hoặc quá lớn", nil))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.error(w, r, errors.NewValidationError("Vui lòng chọn ảnh đại diện", nil))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.error(w, r, errors.NewValidationError("Ảnh đại diện phải là tệp hình ảnh", nil))
		return
	}

	env := h.client(r).UploadAvatar(r.Context(), &apiclient.File{
		FieldName:   "avatar",
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     file,
	})
	if env.OK() {
		_, tok := storeAndToken(r)
		h.dashboard.Invalidate(r.Context(), tok)
	}
	h.envelope(w, r, apiclient.CallProfile, env)
}

// AvatarByID handles GET /api/users/avatar?user_id=
func (h *UserHandler) AvatarByID(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.error(w, r, errors.NewValidationError("Thiếu user_id", nil))
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).AvatarByID(r.Context(), userID))
}

// GetNotifyTime handles GET /api/users/notify-time
func (h *UserHandler) GetNotifyTime(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallProfile, h.client(r).NotifyTime(r.Context()))
}

// SetNotifyTime handles PUT /api/users/notify-time
func (h *UserHandler) SetNotifyTime(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyTimeRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if !validClock(req.NotifyTime) {
		h.error(w, r, errors.NewValidationError("Giờ nhắc nhở phải có dạng HH:MM", nil))
		return
	}
	h.envelope(w, r, apiclient.CallProfile, h.client(r).SetNotifyTime(r.Context(), req))
}

// Activity handles GET /api/users/activity
func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, r, apiclient.CallDashboard, h.client(r).Activity(r.Context()))
}

// UsersByIDs handles POST /api/users/users-by-ids
func (h *UserHandler) UsersByIDs(w http.ResponseWriter, r *http.Request) {
	var req domain.UsersByIDsRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if len(req.IDs) == 0 {
		h.json(w, http.StatusOK, EnvelopeResponse{Status: http.StatusOK, Data: []byte("[]")})
		return
	}
	h.envelope(w, r, apiclient.CallGeneric, h.client(r).UsersByIDs(r.Context(), req.IDs))
}

// validClock accepts a 24h "HH:MM"
func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh < 24 && mm < 60
}
