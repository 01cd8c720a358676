package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/container"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/middleware"
	"pathlight-web/internal/session"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
	"pathlight-web/pkg/utils"
)

// DashboardPath is the default post-login page
const DashboardPath = "/dashboard"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFiles serves the embedded stylesheet and assets
func StaticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

var pageNames = []string{
	"home", "signin", "signup", "verify_email_sent", "verify_email", "dashboard", "profile",
}

var templateFuncs = template.FuncMap{
	"phone": utils.FormatPhoneNumberForDisplay,
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// pageData is shared by every page template
type pageData struct {
	Title         string
	SignedIn      bool
	Guarded       bool
	CheckInterval int
	OAuthEnabled  bool
	Error         string
	Flash         string

	Redirect string
	Email    string
	FullName string
	Remember bool
	Verified bool

	View  *dashboard.View
	Retry bool
	User  *domain.User
}

// PageHandler renders the server-side pages
type PageHandler struct {
	auth          *AuthHandler
	api           *apiclient.Client
	dashboard     *dashboard.Service
	guard         *session.Guard
	cookies       tokenstore.CookieOptions
	oauthEnabled  bool
	checkInterval time.Duration
	pages         map[string]*template.Template
	logger        *logger.Logger
}

// NewPageHandler parses the embedded templates
func NewPageHandler(c *container.Container, auth *AuthHandler) (*PageHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		auth:          auth,
		api:           c.API,
		dashboard:     c.Dashboard,
		guard:         c.Guard,
		cookies:       c.CookieOptions(),
		oauthEnabled:  c.OAuth != nil,
		checkInterval: c.Config.SessionCheckInterval,
		pages:         pages,
		logger:        c.Logger,
	}, nil
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if !data.SignedIn {
		data.SignedIn = h.guard.Check(middleware.StoreFromContext(r.Context())).State == session.StateAuthenticated
	}
	data.OAuthEnabled = h.oauthEnabled
	data.CheckInterval = int(h.checkInterval.Seconds())

	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.WithError(err).WithField("page", name).Error("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", pageData{Title: "Trang chủ"})
}

// SignInPage handles GET /auth/signin
func (h *PageHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if h.guard.Check(middleware.StoreFromContext(r.Context())).State == session.StateAuthenticated {
		http.Redirect(w, r, postLoginRedirect(redirect), http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "signin", pageData{
		Title:    "Đăng nhập",
		Redirect: session.SafeRedirect(redirect),
		Error:    oauthErrorMessage(r.URL.Query().Get("error")),
	})
}

// SignInSubmit handles the sign-in form POST
func (h *PageHandler) SignInSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "signin", pageData{Title: "Đăng nhập", Error: "Dữ liệu gửi lên không hợp lệ"})
		return
	}
	body := SignInBody{
		SignInRequest: domain.SignInRequest{
			Email:    strings.TrimSpace(r.PostForm.Get("email")),
			Password: r.PostForm.Get("password"),
		},
		Remember: r.PostForm.Get("remember") != "",
		Redirect: r.PostForm.Get("redirect"),
	}
	data := pageData{
		Title:    "Đăng nhập",
		Email:    body.Email,
		Remember: body.Remember,
		Redirect: session.SafeRedirect(body.Redirect),
	}

	if err := validateSignInRequest(&body.SignInRequest); err != nil {
		data.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, "signin", data)
		return
	}

	result, env := h.auth.signIn(r, middleware.StoreFromContext(r.Context()), body)
	if result == nil {
		data.Error = apiclient.UserMessage(apiclient.CallSignIn, env)
		h.render(w, r, httpStatusOrBadGateway(env), "signin", data)
		return
	}
	http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
}

// SignUpPage handles GET /auth/signup
func (h *PageHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", pageData{Title: "Đăng ký"})
}

// SignUpSubmit handles the sign-up form POST
func (h *PageHandler) SignUpSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "signup", pageData{Title: "Đăng ký", Error: "Dữ liệu gửi lên không hợp lệ"})
		return
	}
	req := domain.SignUpRequest{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
		FullName: strings.TrimSpace(r.PostForm.Get("full_name")),
	}
	data := pageData{Title: "Đăng ký", Email: req.Email, FullName: req.FullName}

	if err := validateSignUpRequest(&req); err != nil {
		data.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, "signup", data)
		return
	}

	env := h.auth.signUp(w, r, req)
	if !env.OK() {
		data.Error = apiclient.UserMessage(apiclient.CallSignUp, env)
		h.render(w, r, httpStatusOrBadGateway(env), "signup", data)
		return
	}
	http.Redirect(w, r, VerifyEmailSentPath, http.StatusSeeOther)
}

// VerifyEmailSentPage handles GET /auth/verify-email-sent
func (h *PageHandler) VerifyEmailSentPage(w http.ResponseWriter, r *http.Request) {
	email, _ := tokenstore.PendingEmail(r)
	data := pageData{Title: "Xác thực email", Email: email}
	if r.URL.Query().Get("sent") == "1" {
		data.Flash = "Đã gửi lại email xác thực"
	}
	h.render(w, r, http.StatusOK, "verify_email_sent", data)
}

// ResendVerificationSubmit handles POST /auth/verify-email-sent
func (h *PageHandler) ResendVerificationSubmit(w http.ResponseWriter, r *http.Request) {
	email, ok := tokenstore.PendingEmail(r)
	if !ok {
		http.Redirect(w, r, VerifyEmailSentPath, http.StatusSeeOther)
		return
	}
	env := h.api.ResendVerification(r.Context(), domain.EmailRequest{Email: email})
	if !env.OK() {
		h.render(w, r, httpStatusOrBadGateway(env), "verify_email_sent", pageData{
			Title: "Xác thực email",
			Email: email,
			Error: apiclient.UserMessage(apiclient.CallVerifyEmail, env),
		})
		return
	}
	http.Redirect(w, r, VerifyEmailSentPath+"?sent=1", http.StatusSeeOther)
}

// VerifyEmailPage handles GET /auth/verify-email?token=, the link in the mail
func (h *PageHandler) VerifyEmailPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Xác thực email"}
	tok := r.URL.Query().Get("token")
	if tok == "" {
		data.Error = "Thiếu mã xác thực"
		h.render(w, r, http.StatusBadRequest, "verify_email", data)
		return
	}

	env := h.api.VerifyEmail(r.Context(), domain.VerifyEmailRequest{Token: tok})
	if !env.OK() {
		data.Error = apiclient.UserMessage(apiclient.CallVerifyEmail, env)
		h.render(w, r, httpStatusOrBadGateway(env), "verify_email", data)
		return
	}
	tokenstore.ClearPendingEmail(w, h.cookies)
	data.Verified = true
	h.render(w, r, http.StatusOK, "verify_email", data)
}

// SignOutSubmit handles POST /auth/signout
func (h *PageHandler) SignOutSubmit(w http.ResponseWriter, r *http.Request) {
	h.auth.signOut(r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DashboardPage handles GET /dashboard
func (h *PageHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	store, tok := storeAndToken(r)
	view, env := h.dashboard.Load(r.Context(), h.api.For(store), tok)
	if view != nil {
		h.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Bảng điều khiển", SignedIn: true, Guarded: true, View: view})
		return
	}

	if env.Unauthorized() {
		h.guard.HandleUnauthorized(store)
		http.Redirect(w, r, session.SignInRedirect(r.URL.RequestURI()), http.StatusFound)
		return
	}
	h.render(w, r, httpStatusOrBadGateway(env), "dashboard", pageData{
		Title:    "Bảng điều khiển",
		SignedIn: true,
		Guarded:  true,
		Error:    apiclient.UserMessage(apiclient.CallDashboard, env),
		Retry:    true,
	})
}

// ProfilePage handles GET /profile
func (h *PageHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	h.profile(w, r, "")
}

// ProfileSubmit handles the profile form POST
func (h *PageHandler) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.profile(w, r, "")
		return
	}
	fullName := strings.TrimSpace(r.PostForm.Get("full_name"))
	bio := strings.TrimSpace(r.PostForm.Get("bio"))
	phone := strings.TrimSpace(r.PostForm.Get("phone"))
	update := domain.ProfileUpdate{FullName: &fullName, Bio: &bio}
	if phone != "" {
		update.Phone = &phone
	}
	if err := validateProfileUpdate(&update); err != nil {
		h.render(w, r, http.StatusBadRequest, "profile", pageData{
			Title: "Hồ sơ", SignedIn: true, Guarded: true,
			Error: err.Error(),
		})
		return
	}

	store, tok := storeAndToken(r)
	env := h.api.For(store).UpdateProfile(r.Context(), update)
	if env.Unauthorized() {
		h.guard.HandleUnauthorized(store)
		http.Redirect(w, r, session.SignInRedirect("/profile"), http.StatusFound)
		return
	}
	if !env.OK() {
		h.render(w, r, httpStatusOrBadGateway(env), "profile", pageData{
			Title: "Hồ sơ", SignedIn: true, Guarded: true,
			Error: apiclient.UserMessage(apiclient.CallProfile, env),
		})
		return
	}
	h.dashboard.Invalidate(r.Context(), tok)
	h.profile(w, r, "Đã lưu thay đổi")
}

func (h *PageHandler) profile(w http.ResponseWriter, r *http.Request, flash string) {
	store, _ := storeAndToken(r)
	env := h.api.For(store).Profile(r.Context())
	if env.Unauthorized() {
		h.guard.HandleUnauthorized(store)
		http.Redirect(w, r, session.SignInRedirect("/profile"), http.StatusFound)
		return
	}

	data := pageData{Title: "Hồ sơ", SignedIn: true, Guarded: true, Flash: flash}
	if !env.OK() {
		data.Error = apiclient.UserMessage(apiclient.CallProfile, env)
		h.render(w, r, httpStatusOrBadGateway(env), "profile", data)
		return
	}
	var user domain.User
	if err := env.Decode(&user); err != nil {
		data.Error = apiclient.UserMessage(apiclient.CallProfile, &apiclient.Envelope{Status: env.Status, Error: err.Error()})
		h.render(w, r, http.StatusBadGateway, "profile", data)
		return
	}
	data.User = &user
	h.render(w, r, http.StatusOK, "profile", data)
}

func httpStatusOrBadGateway(env *apiclient.Envelope) int {
	code := httpStatus(env.Status)
	if code < 400 {
		return http.StatusBadGateway
	}
	return code
}

func oauthErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "oauth_denied":
		return "Bạn đã huỷ đăng nhập với Google"
	case "oauth_rejected":
		return "Không thể đăng nhập bằng tài khoản Google này"
	default:
		return "Đăng nhập với Google thất bại, vui lòng thử lại"
	}
}
