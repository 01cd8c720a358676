package domain

// SignInRequest is forwarded to /signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is forwarded to /signup
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// EmailRequest is the body of resend-verification and forget-password
type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// TokenResponse is the payload of sign-in, oauth-signin and refresh.
// Older backend builds answer with "token" instead of "access_token".
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	TokenType   string `json:"token_type,omitempty"`
}

// OAuthClaims is the normalized identity an OAuth provider hands back
type OAuthClaims struct {
	Provider      string `json:"provider"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}
