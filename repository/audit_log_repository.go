package repository

import (
	"context"
	"fmt"

	"govpay/database"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// AuditLogRepository implements the AuditLogRepository interface
type AuditLogRepository struct {
	q Queryable
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db.Pool}
}

func newAuditLogRepository(tx Queryable) interfaces.AuditLogRepository {
	return &AuditLogRepository{q: tx}
}

// Append adds one note line.
func (r *AuditLogRepository) Append(ctx context.Context, notes string) error {
	if _, err := r.q.Exec(ctx, `INSERT INTO audit_log (notes) VALUES ($1)`, notes); err != nil {
		return fmt.Errorf("failed to append audit note: %w", err)
	}
	return nil
}

// DeleteBatch removes notes with id in [startingID, startingID+batchSize]
// and returns the smallest remaining id above the batch, or 0 when the log
// is drained past that point.
func (r *AuditLogRepository) DeleteBatch(ctx context.Context, startingID, batchSize int64) (int64, error) {
	upper := startingID + batchSize
	_, err := r.q.Exec(ctx, `DELETE FROM audit_log WHERE id >= $1 AND id <= $2`, startingID, upper)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit notes %d..%d: %w", startingID, upper, err)
	}

	var nextID int64
	err = r.q.QueryRow(ctx, `SELECT id FROM audit_log WHERE id > $1 ORDER BY id LIMIT 1`, upper).Scan(&nextID)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find next audit note after %d: %w", upper, err)
	}
	return nextID, nil
}
