package risk

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Keyword is one configured trigger and the category it reports under.
type Keyword struct {
	Text     string
	Category models.KeywordCategory
}

// DefaultKeywords is the fixed ordered keyword list. Detected keywords are reported
// in this order.
var DefaultKeywords = []Keyword{
	{"otp", models.CategoryOTPRequest},
	{"anydesk", models.CategoryRemoteAccess},
	{"teamviewer", models.CategoryRemoteAccess},
	{"remote", models.CategoryRemoteAccess},
	{"access", models.CategoryRemoteAccess},
	{"install", models.CategoryInstallationRequest},
	{"verification code", models.CategoryOTPRequest},
	{"security code", models.CategoryOTPRequest},
	{"one-time", models.CategoryOTPRequest},
	{"password", models.CategoryOTPRequest},
	{"authenticate", models.CategoryOTPRequest},
	{"urgent", models.CategoryUrgency},
	{"emergency", models.CategoryUrgency},
	{"support team", models.CategoryGeneric},
	{"technical support", models.CategoryGeneric},
}

// categoryOrder fixes the order reasons are emitted in.
var categoryOrder = []models.KeywordCategory{
	models.CategoryOTPRequest,
	models.CategoryRemoteAccess,
	models.CategoryInstallationRequest,
	models.CategoryUrgency,
	models.CategoryGeneric,
}

var categoryReasons = map[models.KeywordCategory]string{
	models.CategoryOTPRequest:          "Potential OTP/password request detected",
	models.CategoryRemoteAccess:        "Remote access software mentioned",
	models.CategoryInstallationRequest: "Installation request detected",
	models.CategoryUrgency:             "Urgency indicators detected",
	models.CategoryGeneric:             "Detected suspicious keywords",
}

// Reason returns the human-readable reason for a category.
func Reason(c models.KeywordCategory) string {
	return categoryReasons[c]
}

// ParseCategory maps a configured category name to a KeywordCategory.
func ParseCategory(name string) (models.KeywordCategory, error) {
	c := models.KeywordCategory(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := categoryReasons[c]; !ok {
		return "", fmt.Errorf("unknown keyword category %q", name)
	}
	return c, nil
}

// MatchMode selects how keywords are located in a transcript.
type MatchMode string

const (
	// MatchSubstring matches anywhere in the lower-cased text, including inside
	// longer words ("passwords", "remotely").
	MatchSubstring MatchMode = "substring"

	// MatchToken matches whole words only. Multi-word keywords must appear as
	// consecutive words.
	MatchToken MatchMode = "token"
)

// ParseMatchMode validates a configured match mode. Empty means substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchToken:
		return MatchToken, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchSubstring, MatchToken)
	}
}

// tokenize lower-cases text and splits it into words. Letters, digits, apostrophes
// and hyphens belong to words; everything else separates them.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\''
}

// containsTokens reports whether needle occurs as a consecutive run in haystack.
func containsTokens(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, n := range needle {
			if haystack[i+j] != n {
				continue outer
			}
		}
		return true
	}
	return false
}
