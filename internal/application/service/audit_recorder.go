package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
)

// AuditRecorder appends audit entries for every mutation. Writes are
// best-effort: a failed append is logged and never rolls back the mutation
// it describes.
type AuditRecorder interface {
	Record(ctx context.Context, actor entity.Actor, action, entityType string, entityID int64, description string, oldValues, newValues interface{})
}

type auditRecorderImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditRecorder creates a new AuditRecorder
func NewAuditRecorder(auditRepo port.AuditRepository, logger Logger) AuditRecorder {
	return &auditRecorderImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit entry. Old and new values are marshaled to JSON;
// values that fail to marshal are dropped rather than failing the record.
func (r *auditRecorderImpl) Record(ctx context.Context, actor entity.Actor, action, entityType string, entityID int64, description string, oldValues, newValues interface{}) {
	entry := &entity.AuditLogEntry{
		CorrelationID: uuid.NewString(),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Description:   description,
		OldValues:     marshalValues(oldValues),
		NewValues:     marshalValues(newValues),
		Timestamp:     time.Now(),
	}

	if err := r.auditRepo.Append(ctx, entry); err != nil {
		r.logger.Error("Failed to append audit entry",
			"error", err,
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID)
	}
}

func marshalValues(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
