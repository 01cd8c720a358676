// Package token inspects session tokens on the client side.
//
// Nothing here verifies signatures; the backend stays authoritative. The
// validator only decides whether a token is worth presenting at all.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Status is the client-side classification of a token
type Status int

const (
	StatusAbsent Status = iota
	StatusOpaque
	StatusValid
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusOpaque:
		return "opaque"
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Usable reports whether the token may be presented to the backend
func (s Status) Usable() bool {
	return s == StatusOpaque || s == StatusValid
}

var (
	// ErrOpaque is returned by Claims for tokens without the three-segment shape
	ErrOpaque = errors.New("token is opaque")
	// ErrMalformed is returned by Claims when the payload segment cannot be decoded
	ErrMalformed = errors.New("token payload is malformed")
)

// Claims is the unverified subset of a structured token we care about
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt *time.Time
}

// Validator classifies tokens against a clock
type Validator struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewValidator returns a validator using the wall clock
func NewValidator() *Validator {
	return NewValidatorAt(time.Now)
}

// NewValidatorAt returns a validator using the given clock
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now, parser: jwt.NewParser()}
}

// Validate classifies raw. An empty string means no token.
func (v *Validator) Validate(raw string) Status {
	if raw == "" {
		return StatusAbsent
	}

	claims, err := v.decode(raw)
	if errors.Is(err, ErrOpaque) {
		return StatusOpaque
	}
	if err != nil {
		// Undecodable payloads never grant access
		return StatusExpired
	}

	exp, present := claims["exp"]
	if !present || exp == nil {
		return StatusValid
	}

	seconds, ok := numericClaim(exp)
	if !ok {
		return StatusExpired
	}

	nowMillis := float64(v.now().UnixMilli())
	if nowMillis >= seconds*1000 {
		return StatusExpired
	}
	return StatusValid
}

// Claims extracts subject, email and expiry without verifying the signature
func (v *Validator) Claims(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrOpaque
	}
	mc, err := v.decode(raw)
	if err != nil {
		return nil, err
	}

	out := &Claims{}
	if sub, err := mc.GetSubject(); err == nil {
		out.Subject = sub
	}
	if email, ok := mc["email"].(string); ok {
		out.Email = email
	}
	if exp, ok := numericClaim(mc["exp"]); ok {
		sec, frac := math.Modf(exp)
		t := time.Unix(int64(sec), int64(frac*1e9))
		out.ExpiresAt = &t
	}
	return out, nil
}

func (v *Validator) decode(raw string) (jwt.MapClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrOpaque
	}

	payload, err := v.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims == nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

func numericClaim(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
