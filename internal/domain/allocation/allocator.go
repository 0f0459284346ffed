// Package allocation implements the benefit-cap split for claim amounts.
// The allocator is a pure computation: persistence and locking are the
// caller's responsibility.
package allocation

// Result is the outcome of splitting a claimed amount against the
// remaining cap. Counted + Excess always equals the claimed amount.
type Result struct {
	Counted int64
	Excess  int64
}

// Allocate splits amountClaimed (cents) into the portion counted against the
// employee's basket cap and the uncounted excess. alreadyCounted is the sum
// of counted amounts of the employee's existing claims in the same period.
// A claim is never rejected for exceeding the cap; the overhang is simply
// carried as excess.
func Allocate(amountClaimed, capCents, alreadyCounted int64) Result {
	remaining := capCents - alreadyCounted
	if remaining < 0 {
		remaining = 0
	}

	counted := amountClaimed
	if counted > remaining {
		counted = remaining
	}
	if counted < 0 {
		counted = 0
	}

	return Result{
		Counted: counted,
		Excess:  amountClaimed - counted,
	}
}
