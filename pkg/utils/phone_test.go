package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{name: "formatted mobile", input: "0912-345-678", expected: "0912345678"},
		{name: "unformatted mobile", input: "0381234567", expected: "0381234567"},
		{name: "international format +84", input: "+84912345678", expected: "0912345678"},
		{name: "international format 84", input: "84912345678", expected: "0912345678"},
		{name: "with spaces", input: "0912 345 678", expected: "0912345678"},
		{name: "with parentheses", input: "(091) 234-5678", expected: "0912345678"},
		{name: "eleven digit landline", input: "024 3825 1234", err: ErrInvalidPhone},
		{name: "too short", input: "091234", err: ErrInvalidPhone},
		{name: "too long", input: "091234567890", err: ErrInvalidPhone},
		{name: "no leading zero", input: "912345678", err: ErrInvalidPhone},
		{name: "empty", input: "", err: ErrEmptyPhone},
		{name: "blank", input: "   ", err: ErrEmptyPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhoneNumber(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatPhoneNumberForDisplay(t *testing.T) {
	assert.Equal(t, "0912 345 678", FormatPhoneNumberForDisplay("0912345678"))
	assert.Equal(t, "12345", FormatPhoneNumberForDisplay("12345"))
}

func TestIsMobileNumber(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"0912345678", true},
		{"+84 38 123 4567", true},
		{"0712345678", true},
		{"0212345678", false},
		{"0612345678", false},
		{"abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMobileNumber(tt.input))
		})
	}
}
