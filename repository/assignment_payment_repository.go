package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5/pgconn"
)

// AssignmentPaymentRepository implements the AssignmentPaymentRepository
// interface. The unique (assignment_id, period_id) constraint is the
// database-level backstop behind the double-payment guard.
type AssignmentPaymentRepository struct {
	q Queryable
}

// NewAssignmentPaymentRepository creates a new assignment payment repository
func NewAssignmentPaymentRepository(db *database.DB) *AssignmentPaymentRepository {
	return &AssignmentPaymentRepository{q: db.Pool}
}

func newAssignmentPaymentRepository(tx Queryable) interfaces.AssignmentPaymentRepository {
	return &AssignmentPaymentRepository{q: tx}
}

// Create records one assignment payment. Fails with ErrDuplicateKey if one
// already exists for the (assignment, period) pair.
func (r *AssignmentPaymentRepository) Create(ctx context.Context, payment *entities.AssignmentPayment) error {
	amounts, err := json.Marshal(payment.Amounts)
	if err != nil {
		return fmt.Errorf("failed to marshal amounts: %w", err)
	}

	query := `
		INSERT INTO assignment_payments (assignment_id, period_id, recipient, amounts)
		VALUES ($1, $2, $3, $4)
		RETURNING id, payment_date
	`
	err = r.q.QueryRow(ctx, query,
		payment.AssignmentID, payment.PeriodID, payment.Recipient, amounts,
	).Scan(&payment.ID, &payment.PaymentDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: assignment %d already paid for period %d",
				entities.ErrDuplicateKey, payment.AssignmentID, payment.PeriodID)
		}
		return fmt.Errorf("failed to create assignment payment: %w", err)
	}
	return nil
}

// GetByPeriod returns assignment payments for a period, ordered by id.
func (r *AssignmentPaymentRepository) GetByPeriod(ctx context.Context, periodID int64) ([]*entities.AssignmentPayment, error) {
	query := `
		SELECT id, assignment_id, period_id, recipient, payment_date, amounts
		FROM assignment_payments
		WHERE period_id = $1
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment payments for period %d: %w", periodID, err)
	}
	defer rows.Close()

	var payments []*entities.AssignmentPayment
	for rows.Next() {
		var p entities.AssignmentPayment
		var amounts []byte
		if err := rows.Scan(&p.ID, &p.AssignmentID, &p.PeriodID, &p.Recipient, &p.PaymentDate, &amounts); err != nil {
			return nil, fmt.Errorf("failed to scan assignment payment: %w", err)
		}
		if err := json.Unmarshal(amounts, &p.Amounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal amounts: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
