// Package oauth implements third-party sign-in. A Provider turns an
// authorization code into normalized identity claims, which the handler
// forwards to the backend's /oauth-signin.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"pathlight-web/internal/domain"
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrMissingCode   = errors.New("oauth callback without code")
	ErrNoEmail       = errors.New("oauth provider returned no email")
)

// Provider is the capability the sign-in flow needs from an identity provider
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Complete(ctx context.Context, code string) (*domain.OAuthClaims, error)
}

// GoogleConfig configures a GoogleProvider
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and APIEndpoint override Google's hosts; zero values use Google
	Endpoint    oauth2.Endpoint
	APIEndpoint string
}

// GoogleProvider signs users in with Google
type GoogleProvider struct {
	config      *oauth2.Config
	apiEndpoint string
}

var _ Provider = (*GoogleProvider)(nil)

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		apiEndpoint: cfg.APIEndpoint,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// AuthCodeURL returns the consent page URL carrying state
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Complete exchanges code and reads the user's profile
func (p *GoogleProvider) Complete(ctx context.Context, code string) (*domain.OAuthClaims, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(p.config.TokenSource(ctx, tok))}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, ErrNoEmail
	}

	claims := &domain.OAuthClaims{
		Provider: p.Name(),
		Subject:  info.Id,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}
	if info.VerifiedEmail != nil {
		claims.EmailVerified = *info.VerifiedEmail
	}
	return claims, nil
}

// StateCookieName holds the anti-forgery state between login and callback
const StateCookieName = "pl_oauth_state"

const stateTTL = 10 * time.Minute

// NewState issues a fresh state value and stores it in a short-lived cookie
func NewState(w http.ResponseWriter, secure bool) string {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		Expires:  time.Now().Add(stateTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// VerifyState compares the callback state to the cookie and clears it
func VerifyState(w http.ResponseWriter, r *http.Request, secure bool) error {
	got := r.URL.Query().Get("state")
	c, err := r.Cookie(StateCookieName)

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || got == "" || c.Value != got {
		return ErrStateMismatch
	}
	return nil
}
