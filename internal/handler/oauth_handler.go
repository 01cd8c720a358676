package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/container"
	"pathlight-web/internal/middleware"
	"pathlight-web/internal/oauth"
	"pathlight-web/internal/session"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
)

// oauthRedirectCookie carries the post-login destination across the provider round trip
const oauthRedirectCookie = "pl_oauth_redirect"

// OAuthHandler runs the provider sign-in round trip
type OAuthHandler struct {
	provider oauth.Provider
	api      *apiclient.Client
	cookies  tokenstore.CookieOptions
	logger   *logger.Logger
}

// NewOAuthHandler creates a new OAuth handler; provider may be nil when
// third-party sign-in is not configured
func NewOAuthHandler(c *container.Container) *OAuthHandler {
	return &OAuthHandler{
		provider: c.OAuth,
		api:      c.API,
		cookies:  c.CookieOptions(),
		logger:   c.Logger,
	}
}

// serves reports whether the {provider} path segment names the configured provider
func (h *OAuthHandler) serves(r *http.Request) bool {
	return h.provider != nil && chi.URLParam(r, "provider") == h.provider.Name()
}

// Login handles GET /auth/{provider}/login
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.serves(r) {
		http.NotFound(w, r)
		return
	}

	state := oauth.NewState(w, h.cookies.Secure)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthRedirectCookie,
		Value:    url.QueryEscape(session.SafeRedirect(r.URL.Query().Get("redirect"))),
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback. Every failure lands back
// on the sign-in page with an error code; the token is only stored once the
// backend accepted the provider's claims.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.serves(r) {
		http.NotFound(w, r)
		return
	}
	log := h.logger.WithField("provider", h.provider.Name())

	if err := oauth.VerifyState(w, r, h.cookies.Secure); err != nil {
		log.WithError(err).Warn("OAuth state check failed")
		h.fail(w, r, "oauth_state")
		return
	}
	if e := r.URL.Query().Get("error"); e != "" {
		log.WithField("error", e).Info("OAuth consent declined")
		h.fail(w, r, "oauth_denied")
		return
	}

	claims, err := h.provider.Complete(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.WithError(err).Warn("OAuth exchange failed")
		h.fail(w, r, "oauth_failed")
		return
	}

	env := h.api.OAuthSignIn(r.Context(), *claims)
	tok, ok := apiclient.AccessToken(env)
	if !ok {
		log.WithFields(map[string]interface{}{
			"status": env.Status,
			"kind":   env.Kind(),
		}).Warn("Backend rejected OAuth sign-in")
		h.fail(w, r, "oauth_rejected")
		return
	}

	store := middleware.StoreFromContext(r.Context())
	if err := store.SetToken(tok, true); err != nil {
		log.WithError(err).Error("Failed to store OAuth token")
		h.fail(w, r, "oauth_failed")
		return
	}

	log.Info("User signed in with OAuth")
	http.Redirect(w, r, postLoginRedirect(h.takeRedirect(w, r)), http.StatusFound)
}

func (h *OAuthHandler) takeRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(oauthRedirectCookie)
	http.SetCookie(w, &http.Cookie{Name: oauthRedirectCookie, Path: "/", MaxAge: -1})
	if err != nil {
		return ""
	}
	target, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return target
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, session.SignInPath+"?error="+code, http.StatusFound)
}
