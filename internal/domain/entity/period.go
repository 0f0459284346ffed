package entity

import "time"

// Period represents an accounting period with a nested submission window.
// Claims accrue against the accrual window; employees may only submit while
// the (narrower) submission window is open.
type Period struct {
	ID              int64     `json:"id"`
	Label           string    `json:"label"`
	AccrualStart    time.Time `json:"accrual_start"`
	AccrualEnd      time.Time `json:"accrual_end"`
	SubmissionOpen  time.Time `json:"submission_open"`
	SubmissionClose time.Time `json:"submission_close"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsOpen returns true if the period still accepts mutations.
func (p *Period) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// ContainsAccrual returns true if t falls inside the accrual window.
func (p *Period) ContainsAccrual(t time.Time) bool {
	return !t.Before(p.AccrualStart) && !t.After(p.AccrualEnd)
}

// ContainsSubmission returns true if t falls inside the submission window.
func (p *Period) ContainsSubmission(t time.Time) bool {
	return !t.Before(p.SubmissionOpen) && !t.After(p.SubmissionClose)
}
