package engine

// QuotaEnforcer counts rule firings in one Run and enforces a maximum.
//
// Firing idempotency already stops a rule from firing twice on the same
// candidates, so a run over a finite store only diverges when rules keep
// minting new identities (for example a consequent Thing, which gets a
// fresh identity each time). The quota bounds that case.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
// A limit of zero or less disables the check.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one firing and fails with ErrQuotaExceeded once the count
// passes the limit.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return NewQuotaError(q.current, q.maxSteps)
	}
	return nil
}

// Current returns the number of firings counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}
