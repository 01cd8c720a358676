package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/container"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/session"
	"pathlight-web/pkg/errors"
	"pathlight-web/pkg/tokenstore"
)

// VerifyEmailSentPath is where sign-up lands
const VerifyEmailSentPath = "/auth/verify-email-sent"

// AuthHandler proxies the backend's authentication endpoints and keeps the
// token cookies in step with their outcome
type AuthHandler struct {
	responder
	api           *apiclient.Client
	dashboard     *dashboard.Service
	cookies       tokenstore.CookieOptions
	checkInterval time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(c *container.Container) *AuthHandler {
	return &AuthHandler{
		responder:     responder{guard: c.Guard, logger: c.Logger},
		api:           c.API,
		dashboard:     c.Dashboard,
		cookies:       c.CookieOptions(),
		checkInterval: c.Config.SessionCheckInterval,
	}
}

// SignInBody is the sign-in form
type SignInBody struct {
	domain.SignInRequest
	Remember bool   `json:"remember"`
	Redirect string `json:"redirect,omitempty"`
}

// AuthResult is the data of a successful sign-in style call
type AuthResult struct {
	Authenticated bool   `json:"authenticated"`
	Remembered    bool   `json:"remembered"`
	Redirect      string `json:"redirect"`
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body SignInBody
	if appErr := decodeJSON(w, r, &body); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := validateSignInRequest(&body.SignInRequest); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	store, _ := storeAndToken(r)
	result, env := h.signIn(r, store, body)
	if result == nil {
		h.envelope(w, r, apiclient.CallSignIn, env)
		return
	}
	h.json(w, http.StatusOK, EnvelopeResponse{Status: env.Status, Data: mustJSON(result)})
}

// signIn runs the backend sign-in and stores the issued token. A nil result
// means env is the failure to report.
func (h *AuthHandler) signIn(r *http.Request, store tokenstore.Store, body SignInBody) (*AuthResult, *apiclient.Envelope) {
	env := h.api.SignIn(r.Context(), body.SignInRequest)
	if !env.OK() {
		return nil, env
	}

	tok, ok := apiclient.AccessToken(env)
	if !ok {
		h.logger.Warn("Sign-in succeeded without a token in the response")
		return nil, &apiclient.Envelope{Status: env.Status, Error: "missing access token"}
	}
	if err := store.SetToken(tok, body.Remember); err != nil {
		h.logger.WithError(err).Error("Failed to store token")
		return nil, &apiclient.Envelope{Status: http.StatusInternalServerError}
	}

	h.logger.WithField("remember", body.Remember).Info("User signed in")
	return &AuthResult{
		Authenticated: true,
		Remembered:    body.Remember,
		Redirect:      postLoginRedirect(body.Redirect),
	}, env
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateSignUpRequest(&req); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	env := h.signUp(w, r, req)
	if !env.OK() {
		h.envelope(w, r, apiclient.CallSignUp, env)
		return
	}
	h.json(w, env.Status, EnvelopeResponse{
		Status: env.Status,
		Data:   mustJSON(map[string]string{"redirect": VerifyEmailSentPath, "email": req.Email}),
	})
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request, req domain.SignUpRequest) *apiclient.Envelope {
	env := h.api.SignUp(r.Context(), req)
	if !env.OK() {
		return env
	}
	tokenstore.SetPendingEmail(w, req.Email, h.cookies)
	// Some deployments sign the user in right away
	if tok, ok := apiclient.AccessToken(env); ok {
		store, _ := storeAndToken(r)
		if err := store.SetToken(tok, false); err != nil {
			h.logger.WithError(err).Warn("Failed to store sign-up token")
		}
	}
	h.logger.Info("User signed up")
	return env
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		h.error(w, r, errors.NewValidationError("Thiếu mã xác thực", nil))
		return
	}

	env := h.api.VerifyEmail(r.Context(), req)
	if env.OK() {
		tokenstore.ClearPendingEmail(w, h.cookies)
		if tok, ok := apiclient.AccessToken(env); ok {
			store, _ := storeAndToken(r)
			_ = store.SetToken(tok, false)
		}
	}
	h.envelope(w, r, apiclient.CallVerifyEmail, env)
}

// ResendVerification handles POST /api/auth/resend-verification. The email
// defaults to the one remembered from sign-up.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if r.ContentLength != 0 {
		if appErr := decodeJSON(w, r, &req); appErr != nil {
			h.error(w, r, appErr)
			return
		}
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email, _ = tokenstore.PendingEmail(r)
	}
	if err := validateEmail(req.Email); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	h.envelope(w, r, apiclient.CallVerifyEmail, h.api.ResendVerification(r.Context(), req))
}

// ForgetPassword handles POST /api/auth/forget-password
func (h *AuthHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	h.envelope(w, r, apiclient.CallForgetPassword, h.api.ForgetPassword(r.Context(), req))
}

// ValidateResetToken handles GET /api/auth/validate-reset-token/{token}
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	resetToken := chi.URLParam(r, "token")
	h.envelope(w, r, apiclient.CallResetToken, h.api.ValidateResetToken(r.Context(), resetToken))
}

// ResetPassword handles POST /api/auth/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.error(w, r, appErr)
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		h.error(w, r, validationError(err))
		return
	}

	resetToken := chi.URLParam(r, "token")
	h.envelope(w, r, apiclient.CallResetToken, h.api.ResetPassword(r.Context(), resetToken, req))
}

// Refresh handles POST /api/auth/refresh, replacing the stored token while
// keeping the remember choice
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	store, current := storeAndToken(r)
	if current == "" {
		h.error(w, r, errors.NewAuthenticationError("Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"))
		return
	}

	env := h.api.For(store).Refresh(r.Context())
	if env.OK() {
		if tok, ok := apiclient.AccessToken(env); ok {
			if err := store.SetToken(tok, store.IsRemembered()); err != nil {
				h.logger.WithError(err).Error("Failed to store refreshed token")
			}
			h.json(w, http.StatusOK, EnvelopeResponse{
				Status: env.Status,
				Data:   mustJSON(AuthResult{Authenticated: true, Remembered: store.IsRemembered()}),
			})
			return
		}
	}
	h.envelope(w, r, apiclient.CallGeneric, env)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.signOut(r)
	h.json(w, http.StatusOK, EnvelopeResponse{
		Status: http.StatusOK,
		Data:   mustJSON(map[string]string{"redirect": "/"}),
	})
}

func (h *AuthHandler) signOut(r *http.Request) {
	store, tok := storeAndToken(r)
	if tok != "" {
		h.dashboard.Invalidate(r.Context(), tok)
	}
	if err := store.RemoveToken(); err != nil {
		h.logger.WithError(err).Error("Failed to remove token on sign-out")
		return
	}
	h.logger.Debug("User signed out")
}

// SessionResponse backs the client-side expiry check that runs on an
// interval and when the tab becomes visible again
type SessionResponse struct {
	State         string     `json:"state"`
	TokenStatus   string     `json:"token_status"`
	Remembered    bool       `json:"remembered"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CheckInterval int        `json:"check_interval_seconds"`
	Redirect      string     `json:"redirect,omitempty"`
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	store, tok := storeAndToken(r)
	d := h.guard.Check(store)

	resp := SessionResponse{
		State:         d.State.String(),
		TokenStatus:   d.TokenStatus.String(),
		Remembered:    store.IsRemembered(),
		CheckInterval: int(h.checkInterval.Seconds()),
	}
	if d.State == session.StateAuthenticated {
		if claims, err := h.guard.Validator().Claims(tok); err == nil {
			resp.ExpiresAt = claims.ExpiresAt
		}
	} else {
		resp.Redirect = session.SignInRedirect(r.URL.Query().Get("path"))
	}

	h.json(w, http.StatusOK, resp)
}

// postLoginRedirect is the page a successful sign-in continues to
func postLoginRedirect(target string) string {
	if safe := session.SafeRedirect(target); safe != "/" {
		return safe
	}
	return DashboardPath
}
