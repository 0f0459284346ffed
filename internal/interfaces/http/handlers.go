package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/application/service"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
	"github.com/garyjia/benefit-claims/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claimService      service.ClaimService
	settlementService service.SettlementService
	periodService     service.PeriodService
	auditService      service.AuditLogService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	claimService service.ClaimService,
	settlementService service.SettlementService,
	periodService service.PeriodService,
	auditService service.AuditLogService,
	logger Logger,
) *Handlers {
	return &Handlers{
		claimService:      claimService,
		settlementService: settlementService,
		periodService:     periodService,
		auditService:      auditService,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitClaimRequest is the payload for POST /claims
type SubmitClaimRequest struct {
	EmployeeID  int64  `json:"employee_id" binding:"required"`
	PeriodID    int64  `json:"period_id" binding:"required"`
	CategoryID  int64  `json:"category_id" binding:"required"`
	Origin      string `json:"origin" binding:"required"`
	Description string `json:"description"`
	DocumentRef string `json:"document_ref"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
}

// UpdateClaimRequest is the payload for PUT /claims/:id
type UpdateClaimRequest struct {
	CategoryID  int64  `json:"category_id" binding:"required"`
	Origin      string `json:"origin" binding:"required"`
	Description string `json:"description"`
	DocumentRef string `json:"document_ref"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
}

// RejectRequest is the payload for POST /claims/:id/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// BatchRequest is the payload for the batch review endpoints
type BatchRequest struct {
	IDs    []int64 `json:"ids" binding:"required"`
	Reason string  `json:"reason"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SubmitClaim handles POST /api/v1/claims
func (h *Handlers) SubmitClaim(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := utils.ValidateClaimAmount(req.AmountCents); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := utils.ValidateOrigin(req.Origin); err != nil {
		respondBadRequest(c, err)
		return
	}

	claim, err := h.claimService.SubmitClaim(c.Request.Context(), service.SubmitClaimInput{
		EmployeeID:  req.EmployeeID,
		PeriodID:    req.PeriodID,
		CategoryID:  req.CategoryID,
		Origin:      req.Origin,
		Description: req.Description,
		DocumentRef: req.DocumentRef,
		AmountCents: req.AmountCents,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// GetClaim handles GET /api/v1/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.GetClaim(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// ListClaims handles GET /api/v1/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	filter := port.ClaimFilter{
		PeriodID:   queryInt64(c, "period_id"),
		EmployeeID: queryInt64(c, "employee_id"),
		Status:     c.Query("status"),
		Limit:      int(queryInt64(c, "limit")),
		Offset:     int(queryInt64(c, "offset")),
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	claims, err := h.claimService.ListClaims(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// UpdateClaim handles PUT /api/v1/claims/:id
func (h *Handlers) UpdateClaim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := utils.ValidateClaimAmount(req.AmountCents); err != nil {
		respondBadRequest(c, err)
		return
	}

	claim, err := h.claimService.UpdateClaim(c.Request.Context(), id, service.UpdateClaimInput{
		CategoryID:  req.CategoryID,
		Origin:      req.Origin,
		Description: req.Description,
		DocumentRef: req.DocumentRef,
		AmountCents: req.AmountCents,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// DeleteClaim handles DELETE /api/v1/claims/:id
func (h *Handlers) DeleteClaim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.claimService.DeleteClaim(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// StartReview handles POST /api/v1/claims/:id/review
func (h *Handlers) StartReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.StartReview(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// ApproveClaim handles POST /api/v1/claims/:id/approve
func (h *Handlers) ApproveClaim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	claim, err := h.claimService.Approve(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// RejectClaim handles POST /api/v1/claims/:id/reject
func (h *Handlers) RejectClaim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	claim, err := h.claimService.Reject(c.Request.Context(), id, req.Reason, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// BatchApprove handles POST /api/v1/reviews/batch-approve
func (h *Handlers) BatchApprove(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := h.claimService.BatchApprove(c.Request.Context(), req.IDs, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// BatchReject handles POST /api/v1/reviews/batch-reject
func (h *Handlers) BatchReject(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := h.claimService.BatchReject(c.Request.Context(), req.IDs, req.Reason, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListPeriods handles GET /api/v1/periods
func (h *Handlers) ListPeriods(c *gin.Context) {
	limit := int(queryInt64(c, "limit"))
	if limit <= 0 {
		limit = 24
	}
	periods, err := h.periodService.ListPeriods(c.Request.Context(), limit, int(queryInt64(c, "offset")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: periods})
}

// CurrentPeriod handles GET /api/v1/periods/current
func (h *Handlers) CurrentPeriod(c *gin.Context) {
	period, err := h.periodService.CurrentPeriod(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: period})
}

// SubmissionPeriod handles GET /api/v1/periods/submission
func (h *Handlers) SubmissionPeriod(c *gin.Context) {
	period, err := h.periodService.SubmissionPeriod(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: period})
}

// ProcessSettlement handles POST /api/v1/periods/:id/settlement
func (h *Handlers) ProcessSettlement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.settlementService.ProcessSettlement(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// DeleteSettlement handles DELETE /api/v1/settlements/:id
func (h *Handlers) DeleteSettlement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.settlementService.DeleteSettlement(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListAuditEntries handles GET /api/v1/audit-log
func (h *Handlers) ListAuditEntries(c *gin.Context) {
	limit := int(queryInt64(c, "limit"))
	if limit <= 0 {
		limit = 100
	}
	entries, err := h.auditService.ListEntries(c.Request.Context(), limit, int(queryInt64(c, "offset")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// actorFrom resolves the acting user from request headers. Authentication is
// handled upstream; the gateway forwards the identity in headers.
func actorFrom(c *gin.Context) entity.Actor {
	id, _ := strconv.ParseInt(c.GetHeader("X-Actor-ID"), 10, 64)
	return entity.Actor{
		ID:   id,
		Name: c.GetHeader("X-Actor-Name"),
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return v
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

// respondError maps service-layer failures onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var pending *service.PendingClaimsError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrPeriodClosed),
		errors.Is(err, service.ErrCapLocked):
		status = http.StatusConflict
	case errors.Is(err, service.ErrTooEarly),
		errors.Is(err, service.ErrPeriodExhausted):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &pending):
		status = http.StatusConflict
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
