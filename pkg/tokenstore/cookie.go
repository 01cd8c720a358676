package tokenstore

import (
	"net/http"
	"time"
)

const (
	TokenCookieName        = "pl_token"
	RememberCookieName     = "pl_remember"
	PendingEmailCookieName = "pl_pending_email"

	pendingEmailMaxAge = 24 * time.Hour
)

// CookieOptions controls how the browser keeps the token cookies
type CookieOptions struct {
	Secure bool
	// RememberFor is the lifetime of a remembered token
	RememberFor time.Duration
	Path        string
}

// DefaultCookieOptions returns secure cookies remembered for 30 days
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Secure:      true,
		RememberFor: 30 * 24 * time.Hour,
		Path:        "/",
	}
}

// CookieStore is a Store over one request/response pair. Writes are
// reflected in later reads on the same store.
type CookieStore struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	// set once the store has been written during this request
	dirty      bool
	token      string
	remembered bool
}

var _ Store = (*CookieStore)(nil)

// NewCookieStore binds a store to the request being served
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStore{w: w, r: r, opts: opts}
}

func (s *CookieStore) SetToken(token string, remember bool) error {
	maxAge := 0
	var expires time.Time
	if remember {
		maxAge = int(s.opts.RememberFor / time.Second)
		expires = time.Now().Add(s.opts.RememberFor)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     s.opts.Path,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expires,
	})
	http.SetCookie(s.w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    boolValue(remember),
		Path:     s.opts.Path,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expires,
	})

	s.dirty = true
	s.token = token
	s.remembered = remember
	return nil
}

func (s *CookieStore) GetToken() (string, bool) {
	if s.dirty {
		return s.token, s.token != ""
	}
	c, err := s.r.Cookie(TokenCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) RemoveToken() error {
	expireCookie(s.w, TokenCookieName, s.opts)
	expireCookie(s.w, RememberCookieName, s.opts)

	s.dirty = true
	s.token = ""
	s.remembered = false
	return nil
}

func (s *CookieStore) IsRemembered() bool {
	if s.dirty {
		return s.remembered
	}
	c, err := s.r.Cookie(RememberCookieName)
	if err != nil {
		return false
	}
	return c.Value == "1"
}

// SetPendingEmail records the address a verification mail was sent to
func SetPendingEmail(w http.ResponseWriter, email string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     PendingEmailCookieName,
		Value:    email,
		Path:     pathOrRoot(opts.Path),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(pendingEmailMaxAge / time.Second),
	})
}

// PendingEmail returns the address recorded by the last successful sign-up
func PendingEmail(r *http.Request) (string, bool) {
	c, err := r.Cookie(PendingEmailCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ClearPendingEmail drops the pending-verification address
func ClearPendingEmail(w http.ResponseWriter, opts CookieOptions) {
	expireCookie(w, PendingEmailCookieName, opts)
}

func expireCookie(w http.ResponseWriter, name string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     pathOrRoot(opts.Path),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
