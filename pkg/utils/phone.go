package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// Vietnamese numbers in national form: 0 followed by 9 digits
	phoneRegex = regexp.MustCompile(`^0[0-9]{9}$`)
	// Regex to remove non-digit characters
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)

	ErrEmptyPhone   = errors.New("phone number cannot be empty")
	ErrInvalidPhone = errors.New("invalid phone number format")
)

// mobilePrefixes are the Vietnamese mobile network prefixes after the 2018
// renumbering
var mobilePrefixes = []string{"03", "05", "07", "08", "09"}

// NormalizePhoneNumber strips formatting and converts +84 numbers to the
// national 0XXXXXXXXX form
func NormalizePhoneNumber(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	// Remove all non-digit characters (hyphens, spaces, parentheses, etc.)
	normalized := digitsOnlyRegex.ReplaceAllString(phone, "")

	// Handle international format (+84)
	if strings.HasPrefix(normalized, "84") && len(normalized) == 11 {
		normalized = "0" + normalized[2:]
	}

	if !phoneRegex.MatchString(normalized) {
		return "", ErrInvalidPhone
	}

	return normalized, nil
}

// FormatPhoneNumberForDisplay formats a normalized phone number for display
// Example: "0912345678" -> "0912 345 678"
func FormatPhoneNumberForDisplay(phone string) string {
	if len(phone) != 10 {
		return phone
	}
	return phone[:4] + " " + phone[4:7] + " " + phone[7:]
}

// IsMobileNumber reports whether phone is a valid Vietnamese mobile number
func IsMobileNumber(phone string) bool {
	normalized, err := NormalizePhoneNumber(phone)
	if err != nil {
		return false
	}
	for _, prefix := range mobilePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}
