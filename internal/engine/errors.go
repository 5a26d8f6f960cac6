package engine

// errors.go defines the engine's error taxonomy and the user-facing message
// table the web layer renders from.
//
// Error codes are grouped by category:
//
//	TPL001 - Unknown template key
//	TPL002 - Template schema invalid
//	MAP001 - Invalid mapping payload
//	MAP002 - Mapping references unknown template fields
//	MAP003 - Cleanup config references unknown template fields
//	FILE001 - Empty upload
//	FILE002 - File is not parseable CSV
//
// The engine never logs and never retries; every failure is returned to the
// caller as a typed error so the caller decides user-facing messaging.

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a caller-fixable request problem: unknown template key,
// malformed mapping/cleanup payloads, or an unusable upload. The reason is
// safe to report verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates a lookup for an unknown entity.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UserMessage is a user-friendly rendering of an error with a support code.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a technical error substring to a user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"unknown templatekey", UserMessage{
		Message: "The selected template does not exist",
		Action:  "Pick a template from the list and try again",
		Code:    "TPL001",
	}},
	{"template not found", UserMessage{
		Message: "The selected template does not exist",
		Action:  "Pick a template from the list and try again",
		Code:    "TPL001",
	}},
	{"invalid mapping payload", UserMessage{
		Message: "The field mapping could not be read",
		Action:  "Re-open the mapping screen and save it again",
		Code:    "MAP001",
	}},
	{"unknown template field", UserMessage{
		Message: "The mapping refers to fields this template does not have",
		Action:  "Reload the template and redo the mapping",
		Code:    "MAP002",
	}},
	{"invalid textcleanup payload", UserMessage{
		Message: "The text cleanup selection could not be read",
		Action:  "Re-select the columns to clean and try again",
		Code:    "MAP003",
	}},
	{"unknown cleanup column", UserMessage{
		Message: "The text cleanup selection refers to fields this template does not have",
		Action:  "Re-select the columns to clean and try again",
		Code:    "MAP003",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a CSV export with at least a header row",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "The uploaded file could not be parsed as CSV",
		Action:  "Export the file again as UTF-8 CSV and retry",
		Code:    "FILE002",
	}},
}

var defaultMessage = UserMessage{
	Message: "Something went wrong while converting the file",
	Action:  "Try again; if the problem persists, contact support with the code",
	Code:    "GEN001",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}
