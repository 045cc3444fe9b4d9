// Package validate checks user-supplied identifiers and text before they
// reach the terminal, the AI providers or the tool wrappers.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Length limits, in runes
const (
	MaxIDLength      = 128
	MaxCommandLength = 8 * 1024
	MaxPromptLength  = 16 * 1024
	MaxQueryLength   = 256
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid input")

// SafeIDPattern allows alphanumeric, hyphens, underscores and dots
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// String validates a string field with length and content checks
func String(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalid, fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalid, fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalid, fieldName)
	}
	return nil
}

// ID validates a session id or tool name
func ID(id, fieldName string, required bool) error {
	if err := String(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", ErrInvalid, fieldName)
	}
	return nil
}

// Command validates a terminal input line. Empty input is allowed and
// handled as a no-op.
func Command(cmd string) error {
	return String(cmd, "command", 0, MaxCommandLength, false)
}

// Prompt validates an AI prompt
func Prompt(prompt string) error {
	if err := String(prompt, "prompt", 1, MaxPromptLength, true); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is blank", ErrInvalid)
	}
	return nil
}

// Query validates a search query
func Query(q string, required bool) error {
	return String(q, "query", 1, MaxQueryLength, required)
}
