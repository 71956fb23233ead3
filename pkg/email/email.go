// Package email derives presentation values from email addresses. Accounts
// are created with only an address; the display name shown in the ledger UI
// comes from here until the user sets one.
package email

import (
	"strings"
	"unicode"
)

// DisplayNameFromEmail builds a human-readable name from the local part of
// an address. "jane.doe@example.com" becomes "Jane Doe"; an unparseable
// local part falls back to "User".
func DisplayNameFromEmail(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		words = append(words, capitalize(p))
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
