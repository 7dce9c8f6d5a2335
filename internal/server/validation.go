package server

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength  = 20
	maxTitleLength = 100
	maxEmojiBytes  = 16
	maxLobbySize   = 20
)

func validatePlayerName(name string) error {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return wrapKind(errValidation, "name is required")
	}
	if len(trimmed) > maxNameLength {
		return wrapKind(errValidation, fmt.Sprintf("name must be %d characters or fewer", maxNameLength))
	}
	if !isSafeText(trimmed) {
		return wrapKind(errValidation, "name contains unsupported characters")
	}
	return nil
}

func validateMovieTitle(title string) error {
	trimmed := normalizeText(title)
	if trimmed == "" {
		return wrapKind(errValidation, "movie title is required")
	}
	if len(trimmed) > maxTitleLength {
		return wrapKind(errValidation, fmt.Sprintf("movie title must be %d characters or fewer", maxTitleLength))
	}
	return nil
}

// validateEmoji allows a short run of printable runes; emoji are multi-byte
// so the limit is in bytes, not characters.
func validateEmoji(emoji string) error {
	trimmed := strings.TrimSpace(emoji)
	if trimmed == "" {
		return wrapKind(errValidation, "emoji is required")
	}
	if len(trimmed) > maxEmojiBytes {
		return wrapKind(errValidation, "reaction is too long")
	}
	if !utf8.ValidString(trimmed) {
		return wrapKind(errValidation, "reaction is not valid text")
	}
	return nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.', '!', '?':
			continue
		default:
			return false
		}
	}
	return true
}
