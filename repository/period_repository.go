package repository

import (
	"context"
	"fmt"
	"time"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// PeriodRepository implements the PeriodRepository interface
type PeriodRepository struct {
	q Queryable
}

// NewPeriodRepository creates a new period repository
func NewPeriodRepository(db *database.DB) *PeriodRepository {
	return &PeriodRepository{q: db.Pool}
}

func newPeriodRepository(tx Queryable) interfaces.PeriodRepository {
	return &PeriodRepository{q: tx}
}

// Create appends a new period with the next id.
func (r *PeriodRepository) Create(ctx context.Context, start, end time.Time) (*entities.Period, error) {
	period := &entities.Period{StartDate: start, EndDate: end}
	query := `INSERT INTO periods (start_date, end_date) VALUES ($1, $2) RETURNING id`
	if err := r.q.QueryRow(ctx, query, start, end).Scan(&period.ID); err != nil {
		return nil, fmt.Errorf("failed to create period: %w", err)
	}
	return period, nil
}

// Get retrieves a period by id. Returns (nil, nil) if absent.
func (r *PeriodRepository) Get(ctx context.Context, id int64) (*entities.Period, error) {
	var period entities.Period
	query := `SELECT id, start_date, end_date FROM periods WHERE id = $1`
	err := r.q.QueryRow(ctx, query, id).Scan(&period.ID, &period.StartDate, &period.EndDate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period %d: %w", id, err)
	}
	return &period, nil
}

// DeleteRange removes periods with id in [begin, end], skipping gaps.
func (r *PeriodRepository) DeleteRange(ctx context.Context, begin, end int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM periods WHERE id >= $1 AND id <= $2`, begin, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete periods %d..%d: %w", begin, end, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every period.
func (r *PeriodRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM periods`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete periods: %w", err)
	}
	return tag.RowsAffected(), nil
}
