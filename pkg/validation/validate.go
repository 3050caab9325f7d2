package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Error marks a caller-fault input problem (HTTP 400, no retry).
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a validation Error.
func Errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation Error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

type Rules struct {
	// MaxContentLen bounds message content length in bytes; 0 means no bound.
	MaxContentLen int
}

var rules Rules

func SetRules(r Rules) { rules = r }

// ValidateSend checks a send-message request. All three fields are required;
// content must be non-blank and within the configured length bound.
func ValidateSend(conversationID, senderID int64, content string) error {
	var errs []string
	if conversationID <= 0 {
		errs = append(errs, "conversationId is required")
	}
	if senderID <= 0 {
		errs = append(errs, "senderId is required")
	}
	if strings.TrimSpace(content) == "" {
		errs = append(errs, "content is required")
	}
	if rules.MaxContentLen > 0 && len(content) > rules.MaxContentLen {
		errs = append(errs, fmt.Sprintf("content too long: %d > %d", len(content), rules.MaxContentLen))
	}
	if len(errs) > 0 {
		return &Error{Msg: strings.Join(errs, "; ")}
	}
	return nil
}

// ValidateUserID checks a userId query or body value.
func ValidateUserID(userID int64) error {
	if userID <= 0 {
		return &Error{Msg: "missing or invalid userId"}
	}
	return nil
}
