// This file validates user message input at the API boundary.
package api

import (
	"fmt"
	"strings"
	"unicode"
)

// Message validation limits.
const (
	// DefaultMaxMessageLength bounds a single user message.
	DefaultMaxMessageLength = 10000
	// repetitionCheckMinLength is the length above which the repetition guard
	// applies.
	repetitionCheckMinLength = 100
	// repetitionMaxShare is the largest share of a message one alphanumeric
	// character may occupy.
	repetitionMaxShare = 0.8
)

// validateMessageText trims and checks one user message: non-empty, bounded
// length, and no degenerate single-character flooding.
func validateMessageText(text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	if len(text) > maxLength {
		return "", fmt.Errorf("message exceeds maximum length of %d characters", maxLength)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("message text cannot be empty")
	}

	if len(trimmed) > repetitionCheckMinLength {
		counts := make(map[rune]int)
		maxCount := 0
		for _, r := range trimmed {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				counts[r]++
				if counts[r] > maxCount {
					maxCount = counts[r]
				}
			}
		}
		if float64(maxCount) > float64(len(trimmed))*repetitionMaxShare {
			return "", fmt.Errorf("message contains excessive repetition")
		}
	}
	return trimmed, nil
}
