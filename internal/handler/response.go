package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/middleware"
	"pathlight-web/internal/session"
	"pathlight-web/pkg/errors"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
	"pathlight-web/pkg/utils"
)

// maxJSONBody caps request bodies forwarded to the backend
const maxJSONBody = 1 << 20

// EnvelopeResponse is what every proxy route answers with. Payloads are
// already unwrapped; failed calls carry a user-facing message and, below
// 500, whatever body the backend sent.
type EnvelopeResponse struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// responder is shared by the proxy handlers
type responder struct {
	guard  *session.Guard
	logger *logger.Logger
}

// envelope writes env for call. A 401 clears the caller's token unless the
// call was a sign-in attempt, where it only means wrong credentials.
func (rs responder) envelope(w http.ResponseWriter, r *http.Request, call apiclient.CallContext, env *apiclient.Envelope) {
	if env.Unauthorized() && call != apiclient.CallSignIn {
		rs.guard.HandleUnauthorized(middleware.StoreFromContext(r.Context()))
	}

	resp := EnvelopeResponse{Status: env.Status}
	if env.OK() {
		resp.Data = env.Payload()
		resp.Message = env.Message
	} else {
		resp.Error = string(env.Kind())
		resp.Message = apiclient.UserMessage(call, env)
		if env.Status < 500 {
			resp.Data = env.Data
		}
		rs.logger.WithFields(map[string]interface{}{
			"path":       r.URL.Path,
			"status":     env.Status,
			"kind":       resp.Error,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Debug("Backend call failed")
	}

	code := httpStatus(env.Status)
	if !env.OK() && code < 300 {
		code = http.StatusBadGateway
	}
	rs.json(w, code, resp)
}

func (rs responder) json(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.WithError(err).Error("Failed to encode response")
	}
}

func (rs responder) error(w http.ResponseWriter, r *http.Request, appErr *errors.AppError) {
	middleware.WriteError(w, r, appErr, rs.logger)
}

// httpStatus maps synthetic envelope statuses onto gateway errors
func httpStatus(status int) int {
	switch status {
	case apiclient.StatusNetworkError:
		return http.StatusBadGateway
	case apiclient.StatusTimeout:
		return http.StatusGatewayTimeout
	default:
		return status
	}
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return b
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewValidationError("Dữ liệu gửi lên không hợp lệ", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return nil
}

// rawBody reads a bounded body that is forwarded to the backend as-is
func rawBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, *errors.AppError) {
	var raw json.RawMessage
	if appErr := decodeJSON(w, r, &raw); appErr != nil {
		return nil, appErr
	}
	return raw, nil
}

// storeAndToken returns the request's token store and its current token
func storeAndToken(r *http.Request) (tokenstore.Store, string) {
	store := middleware.StoreFromContext(r.Context())
	tok, _ := store.GetToken()
	return store, tok
}

const minPasswordLength = 8

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("Vui lòng nhập email")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return fmt.Errorf("Email không hợp lệ")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("Vui lòng nhập mật khẩu")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("Mật khẩu phải có ít nhất %d ký tự", minPasswordLength)
	}
	return nil
}

func validateSignInRequest(req *domain.SignInRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if req.Password == "" {
		return fmt.Errorf("Vui lòng nhập mật khẩu")
	}
	return nil
}

func validateSignUpRequest(req *domain.SignUpRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if strings.TrimSpace(req.FullName) != "" && utf8.RuneCountInString(strings.TrimSpace(req.FullName)) < 2 {
		return fmt.Errorf("Họ tên phải có ít nhất 2 ký tự")
	}
	return nil
}

// validateProfileUpdate checks the editable fields and normalizes the phone
// number in place
func validateProfileUpdate(update *domain.ProfileUpdate) error {
	if update.FullName != nil && strings.TrimSpace(*update.FullName) == "" {
		return fmt.Errorf("Họ tên không được để trống")
	}
	if update.Phone != nil && strings.TrimSpace(*update.Phone) != "" {
		phone, err := utils.NormalizePhoneNumber(*update.Phone)
		if err != nil || !utils.IsMobileNumber(phone) {
			return fmt.Errorf("Số điện thoại không hợp lệ")
		}
		update.Phone = &phone
	}
	if update.Birthday != nil && *update.Birthday != "" {
		if _, err := time.Parse("2006-01-02", *update.Birthday); err != nil {
			return fmt.Errorf("Ngày sinh không hợp lệ")
		}
	}
	return nil
}

func validationError(err error) *errors.AppError {
	return errors.NewValidationError(err.Error(), nil)
}
