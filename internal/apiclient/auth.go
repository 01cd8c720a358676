package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"pathlight-web/internal/domain"
)

// SignIn exchanges credentials for an access token
func (c *Client) SignIn(ctx context.Context, req domain.SignInRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/signin", Body: req})
}

// SignUp creates an account; the backend then mails a verification link
func (c *Client) SignUp(ctx context.Context, req domain.SignUpRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/signup", Body: req})
}

func (c *Client) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/verify-email", Body: req})
}

func (c *Client) ResendVerification(ctx context.Context, req domain.EmailRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/resend-verification", Body: req})
}

func (c *Client) ForgetPassword(ctx context.Context, req domain.EmailRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/forget-password", Body: req})
}

// ValidateResetToken checks a password-reset link before showing the form
func (c *Client) ValidateResetToken(ctx context.Context, resetToken string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/validate-reset-token/" + url.PathEscape(resetToken)})
}

func (c *Client) ResetPassword(ctx context.Context, resetToken string, req domain.ResetPasswordRequest) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/reset-password/" + url.PathEscape(resetToken), Body: req})
}

// OAuthSignIn trades provider claims for a backend access token
func (c *Client) OAuthSignIn(ctx context.Context, claims domain.OAuthClaims) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/oauth-signin", Body: claims})
}

// Refresh asks the backend for a fresh token for the current one
func (c *Client) Refresh(ctx context.Context) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/refresh"})
}

// AccessToken extracts the issued token from a sign-in style envelope
func AccessToken(env *Envelope) (string, bool) {
	if env == nil || !env.OK() {
		return "", false
	}
	var resp domain.TokenResponse
	if err := env.Decode(&resp); err != nil {
		return "", false
	}
	if resp.AccessToken != "" {
		return resp.AccessToken, true
	}
	if resp.Token != "" {
		return resp.Token, true
	}
	return "", false
}
