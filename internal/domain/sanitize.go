package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultPlayerName replaces blank display names
	DefaultPlayerName = "Player"

	// MaxNameLength bounds display names, in runes
	MaxNameLength = 20

	// MaxRoomIDLength bounds user-supplied room ids, in runes
	MaxRoomIDLength = 32
)

// NormalizeRoomID trims and upper-cases a room id so differently cased
// inputs resolve to the same room.
func NormalizeRoomID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: room id is required", ErrValidation)
	}
	if utf8.RuneCountInString(id) > MaxRoomIDLength {
		return "", fmt.Errorf("%w: room id is too long", ErrValidation)
	}
	return cases.Upper(language.Und).String(id), nil
}

// SanitizeName cleans a display name
func SanitizeName(raw string) string {
	name := truncate(collapse(stripAngles(raw)), MaxNameLength)
	if name == "" {
		return DefaultPlayerName
	}
	return name
}

// SanitizeChat cleans a chat line. Empty results are rejected.
func SanitizeChat(raw string, maxLen int) (string, error) {
	text := truncate(collapse(stripAngles(raw)), maxLen)
	if text == "" {
		return "", fmt.Errorf("%w: message is empty", ErrValidation)
	}
	return text, nil
}

func stripAngles(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
