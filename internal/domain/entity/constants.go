package entity

// Status constants for ExpenseClaim
const (
	ClaimStatusSubmitted   = "SUBMITTED"
	ClaimStatusUnderReview = "UNDER_REVIEW"
	ClaimStatusApproved    = "APPROVED"
	ClaimStatusRejected    = "REJECTED"
)

// Status constants for Period
const (
	PeriodStatusOpen   = "OPEN"
	PeriodStatusClosed = "CLOSED"
)

// Status constants for Settlement
const (
	SettlementStatusSuccess = "SUCCESS"
)

// Origin constants for ExpenseClaim
const (
	OriginWeb    = "WEB"
	OriginMobile = "MOBILE"
	OriginImport = "IMPORT"
)

// Audit action constants
const (
	AuditActionCreate      = "CREATE"
	AuditActionUpdate      = "UPDATE"
	AuditActionDelete      = "DELETE"
	AuditActionStartReview = "START_REVIEW"
	AuditActionApprove     = "APPROVE"
	AuditActionReject      = "REJECT"
	AuditActionSettle      = "SETTLE"
	AuditActionUnsettle    = "UNSETTLE"
)

// Audit entity type constants
const (
	AuditEntityClaim      = "EXPENSE_CLAIM"
	AuditEntityPeriod     = "PERIOD"
	AuditEntitySettlement = "SETTLEMENT"
)
