package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-claims/internal/application/port"
	"github.com/garyjia/benefit-claims/internal/domain/entity"
	"github.com/garyjia/benefit-claims/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditRepository as an append-only log
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit entry. Audit writes deliberately run on the plain
// connection, not the caller's transaction: a rolled-back mutation must not
// take its audit trail down with it, and a failed append must not fail the
// mutation.
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (
			correlation_id, actor_id, actor_name, action, entity_type, entity_id,
			description, old_values, new_values, metadata, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.CorrelationID,
		entry.ActorID,
		entry.ActorName,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		nullString(entry.Description),
		nullString(entry.OldValues),
		nullString(entry.NewValues),
		nullString(entry.Metadata),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// List retrieves audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]*entity.AuditLogEntry, error) {
	query := `
		SELECT id, correlation_id, actor_id, actor_name, action, entity_type,
			entity_id, description, old_values, new_values, metadata, timestamp
		FROM audit_log
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var e entity.AuditLogEntry
		var description, oldValues, newValues, metadata sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.CorrelationID,
			&e.ActorID,
			&e.ActorName,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&description,
			&oldValues,
			&newValues,
			&metadata,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Description = description.String
		e.OldValues = oldValues.String
		e.NewValues = newValues.String
		e.Metadata = metadata.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
