package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func withPayload(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + payload + ".c2ln"
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidatorAt(func() time.Time { return fixedNow })

	tests := []struct {
		name  string
		token string
		want  Status
	}{
		{
			name:  "empty token is absent",
			token: "",
			want:  StatusAbsent,
		},
		{
			name:  "opaque session id",
			token: "sess_8f14e45fceea167a5a36dedd4bea2543",
			want:  StatusOpaque,
		},
		{
			name:  "two segments stay opaque",
			token: "header.payload",
			want:  StatusOpaque,
		},
		{
			name:  "four segments stay opaque",
			token: "a.b.c.d",
			want:  StatusOpaque,
		},
		{
			name:  "future expiry is valid",
			token: signed(t, jwt.MapClaims{"sub": "u1", "exp": fixedNow.Add(time.Hour).Unix()}),
			want:  StatusValid,
		},
		{
			name:  "past expiry is expired",
			token: signed(t, jwt.MapClaims{"sub": "u1", "exp": fixedNow.Add(-time.Second).Unix()}),
			want:  StatusExpired,
		},
		{
			name:  "expiry equal to now is expired",
			token: signed(t, jwt.MapClaims{"sub": "u1", "exp": fixedNow.Unix()}),
			want:  StatusExpired,
		},
		{
			name:  "no exp claim never expires",
			token: signed(t, jwt.MapClaims{"sub": "u1"}),
			want:  StatusValid,
		},
		{
			name:  "payload is not base64",
			token: withPayload("***not-base64***"),
			want:  StatusExpired,
		},
		{
			name:  "payload is not json",
			token: withPayload(base64.RawURLEncoding.EncodeToString([]byte("hello"))),
			want:  StatusExpired,
		},
		{
			name:  "payload is json null",
			token: withPayload(base64.RawURLEncoding.EncodeToString([]byte("null"))),
			want:  StatusExpired,
		},
		{
			name:  "exp is a string",
			token: withPayload(base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"tomorrow"}`))),
			want:  StatusExpired,
		},
		{
			name:  "empty segments",
			token: "..",
			want:  StatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.token))
		})
	}
}

func TestValidator_ExpiryBoundary(t *testing.T) {
	exp := fixedNow.Add(10 * time.Minute)
	tok := signed(t, jwt.MapClaims{"exp": exp.Unix()})

	before := NewValidatorAt(func() time.Time { return exp.Add(-time.Millisecond) })
	at := NewValidatorAt(func() time.Time { return exp })
	after := NewValidatorAt(func() time.Time { return exp.Add(time.Millisecond) })

	assert.Equal(t, StatusValid, before.Validate(tok))
	assert.Equal(t, StatusExpired, at.Validate(tok))
	assert.Equal(t, StatusExpired, after.Validate(tok))
}

func TestStatus_Usable(t *testing.T) {
	assert.False(t, StatusAbsent.Usable())
	assert.True(t, StatusOpaque.Usable())
	assert.True(t, StatusValid.Usable())
	assert.False(t, StatusExpired.Usable())
	assert.Equal(t, "expired", StatusExpired.String())
}

func TestValidator_Claims(t *testing.T) {
	v := NewValidator()
	exp := time.Unix(1893456000, 0)

	claims, err := v.Claims(signed(t, jwt.MapClaims{"sub": "user-42", "email": "an@pathlight.dev", "exp": exp.Unix()}))
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "an@pathlight.dev", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, exp.Equal(*claims.ExpiresAt))

	_, err = v.Claims("opaque-token")
	assert.ErrorIs(t, err, ErrOpaque)

	_, err = v.Claims(withPayload("%%%"))
	assert.ErrorIs(t, err, ErrMalformed)
}
