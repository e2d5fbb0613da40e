package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// checkText enforces the required flag and the rune length limit.
func checkText(field, value string, required bool, max int, requiredMsg, label string) error {
	if required && strings.TrimSpace(value) == "" {
		return invalid(field, "%s", requiredMsg)
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		return invalid(field, "%s cannot be more than %d characters", label, max)
	}
	return nil
}
