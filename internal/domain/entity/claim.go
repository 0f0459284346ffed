package entity

import "time"

// ExpenseClaim represents an employee-submitted benefit expense claim.
// Amounts are integer cents. AmountCounted + AmountExcess always equals
// AmountClaimed: the portion above the remaining basket cap is carried as
// excess instead of rejecting the claim.
type ExpenseClaim struct {
	ID              int64      `json:"id"`
	EmployeeID      int64      `json:"employee_id"`
	PeriodID        int64      `json:"period_id"`
	CategoryID      int64      `json:"category_id"`
	Origin          string     `json:"origin"`
	Description     string     `json:"description"`
	DocumentRef     string     `json:"document_ref,omitempty"`
	AmountClaimed   int64      `json:"amount_claimed_cents"`
	AmountCounted   int64      `json:"amount_counted_cents"`
	AmountExcess    int64      `json:"amount_excess_cents"`
	Status          string     `json:"status"`
	ReviewerID      *int64     `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsMutable returns true while the claim may still be edited or deleted.
func (c *ExpenseClaim) IsMutable() bool {
	return c.Status == ClaimStatusSubmitted
}

// IsResolved returns true once the claim reached a terminal status.
func (c *ExpenseClaim) IsResolved() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}
