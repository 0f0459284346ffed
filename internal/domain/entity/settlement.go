package entity

import "time"

// Settlement represents one successful period-closing run.
type Settlement struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	PeriodID      int64     `json:"period_id"`
	ActorID       int64     `json:"actor_id"`
	ProcessedAt   time.Time `json:"processed_at"`
	Status        string    `json:"status"`
	EmployeeCount int       `json:"employee_count"`
	EventCount    int       `json:"event_count"`
	TotalAmount   int64     `json:"total_amount_cents"`
}

// OverflowEvent records the PI/DA conversion for one employee in one
// settlement: the employee's PI/DA base plus the unused portion of the
// benefit basket cap. At most one event exists per (employee, settlement).
type OverflowEvent struct {
	ID             int64 `json:"id"`
	EmployeeID     int64 `json:"employee_id"`
	PeriodID       int64 `json:"period_id"`
	SettlementID   int64 `json:"settlement_id"`
	BaseAmount     int64 `json:"base_amount_cents"`
	CestaShortfall int64 `json:"cesta_shortfall_cents"`
	TotalAmount    int64 `json:"total_amount_cents"`
}

// SettlementSummary aggregates per-component totals of a settlement run.
type SettlementSummary struct {
	TotalFixed  int64 `json:"total_fixed_cents"`
	TotalBasket int64 `json:"total_basket_cents"`
	TotalPida   int64 `json:"total_pida_cents"`
	GrandTotal  int64 `json:"grand_total_cents"`
}
