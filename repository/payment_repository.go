package repository

import (
	"context"
	"fmt"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"
)

// PaymentRepository implements the PaymentRepository interface. Amounts
// are stored in their rendered form ("100.00 VOTE") so the ledger reads
// plainly in SQL.
type PaymentRepository struct {
	q Queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

func newPaymentRepository(tx Queryable) interfaces.PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create appends a ledger line, assigning the next id.
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	query := `
		INSERT INTO payments (period_id, assignment_id, recipient, amount, memo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, payment_date
	`
	err := r.q.QueryRow(ctx, query,
		payment.PeriodID, payment.AssignmentID, payment.Recipient, payment.Amount.String(), payment.Memo,
	).Scan(&payment.ID, &payment.PaymentDate)
	if err != nil {
		return fmt.Errorf("failed to create payment for %s: %w", payment.Recipient, err)
	}
	return nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*entities.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*entities.Payment
	for rows.Next() {
		var p entities.Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.PaymentDate, &p.PeriodID, &p.AssignmentID, &p.Recipient, &amount, &p.Memo); err != nil {
			return nil, err
		}
		if p.Amount, err = entities.ParseQuantity(amount); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

const paymentColumns = `id, payment_date, period_id, assignment_id, recipient, amount, memo`

// GetByPeriod returns payments for a period, ordered by id.
func (r *PaymentRepository) GetByPeriod(ctx context.Context, periodID int64) ([]*entities.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE period_id = $1 ORDER BY id`
	payments, err := r.queryPayments(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for period %d: %w", periodID, err)
	}
	return payments, nil
}

// GetByRecipient returns payments to a recipient, newest first.
func (r *PaymentRepository) GetByRecipient(ctx context.Context, recipient string, limit int) ([]*entities.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE recipient = $1 ORDER BY payment_date DESC, id DESC LIMIT $2`
	payments, err := r.queryPayments(ctx, query, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for recipient %s: %w", recipient, err)
	}
	return payments, nil
}

// GetByAssignment returns payments tied to an assignment, ordered by id.
func (r *PaymentRepository) GetByAssignment(ctx context.Context, assignmentID int64) ([]*entities.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE assignment_id = $1 ORDER BY id`
	payments, err := r.queryPayments(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for assignment %d: %w", assignmentID, err)
	}
	return payments, nil
}

// DeleteAll removes every ledger line.
func (r *PaymentRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM payments`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	return tag.RowsAffected(), nil
}
