package node

import (
	"fmt"
	"strings"

	"github.com/roach88/polygenea/internal/ir"
)

// Log collects validation problems. A nil *Log discards them, so Validate
// can be called just for its boolean result.
type Log struct {
	problems []string
}

// Addf records a problem.
func (l *Log) Addf(format string, args ...any) {
	if l == nil {
		return
	}
	l.problems = append(l.problems, fmt.Sprintf(format, args...))
}

// Problems returns everything recorded so far.
func (l *Log) Problems() []string {
	if l == nil {
		return nil
	}
	return l.problems
}

// Empty reports whether nothing has been recorded.
func (l *Log) Empty() bool {
	return l == nil || len(l.problems) == 0
}

// String joins the recorded problems one per line.
func (l *Log) String() string {
	return strings.Join(l.Problems(), "\n")
}

// Err returns nil for an empty log, else an ErrValidationFailure carrying
// every problem.
func (l *Log) Err() error {
	if l.Empty() {
		return nil
	}
	return &ir.Error{
		Code:     ir.CodeValidationFailure,
		Message:  fmt.Sprintf("%d problem(s)", len(l.problems)),
		Problems: append([]string(nil), l.problems...),
	}
}
