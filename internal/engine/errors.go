package engine

import (
	"errors"
	"fmt"
)

// RuleError represents a failure applying or running inference rules.
//
// An ordinary non-match is not an error; RuleError covers rules that
// cannot be evaluated at all and runs that hit their step limit.
type RuleError struct {
	// Code identifies the error category.
	Code RuleErrorCode

	// Message is a human-readable description.
	Message string

	// Rule is the identity of the rule involved, if any.
	Rule string

	// Pattern is the offending pattern text (for unsupported patterns).
	Pattern string

	// Details contains additional context.
	Details map[string]string
}

// RuleErrorCode categorizes rule errors.
type RuleErrorCode string

const (
	// ErrCodeUnsupportedPattern indicates a "!kind:" pattern the matcher does
	// not understand, or one whose argument is malformed.
	ErrCodeUnsupportedPattern RuleErrorCode = "UNSUPPORTED_PATTERN"

	// ErrCodeQuotaExceeded indicates a run exceeded its firing limit.
	ErrCodeQuotaExceeded RuleErrorCode = "QUOTA_EXCEEDED"
)

// Sentinels for errors.Is. Any *RuleError with the same Code matches.
var (
	ErrUnsupportedPattern = &RuleError{Code: ErrCodeUnsupportedPattern}
	ErrQuotaExceeded      = &RuleError{Code: ErrCodeQuotaExceeded}
)

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Rule != "" && e.Pattern != "" {
		return fmt.Sprintf("%s: %s (rule=%s, pattern=%q)", e.Code, e.Message, e.Rule, e.Pattern)
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	if e.Pattern != "" {
		return fmt.Sprintf("%s: %s (pattern=%q)", e.Code, e.Message, e.Pattern)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any RuleError with the same Code.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

// IsUnsupportedPattern returns true if the error is an unsupported pattern
// error. Uses errors.As to handle wrapped errors.
func IsUnsupportedPattern(err error) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnsupportedPattern
	}
	return false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	return false
}

// newPatternError creates a RuleError for a pattern that cannot be
// evaluated.
func newPatternError(pattern, format string, args ...any) *RuleError {
	return &RuleError{
		Code:    ErrCodeUnsupportedPattern,
		Message: fmt.Sprintf(format, args...),
		Pattern: pattern,
	}
}

// NewQuotaError creates a RuleError for an exhausted firing budget.
func NewQuotaError(steps, maxSteps int) *RuleError {
	return &RuleError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("run exceeded max steps (%d > %d)", steps, maxSteps),
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}
