package repository

import (
	"context"
	"fmt"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// ApplicantRepository implements the ApplicantRepository interface
type ApplicantRepository struct {
	q Queryable
}

// NewApplicantRepository creates a new applicant repository
func NewApplicantRepository(db *database.DB) *ApplicantRepository {
	return &ApplicantRepository{q: db.Pool}
}

func newApplicantRepository(tx Queryable) interfaces.ApplicantRepository {
	return &ApplicantRepository{q: tx}
}

// Get retrieves an applicant by account. Returns (nil, nil) if absent.
func (r *ApplicantRepository) Get(ctx context.Context, account string) (*entities.Applicant, error) {
	var applicant entities.Applicant

	query := `SELECT account, content, created_at, updated_at FROM applicants WHERE account = $1`
	err := r.q.QueryRow(ctx, query, account).Scan(
		&applicant.Account, &applicant.Content, &applicant.CreatedAt, &applicant.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant %s: %w", account, err)
	}
	return &applicant, nil
}

// Upsert creates the application or refreshes its content.
func (r *ApplicantRepository) Upsert(ctx context.Context, account, content string) (*entities.Applicant, error) {
	applicant := &entities.Applicant{Account: account, Content: content}

	query := `
		INSERT INTO applicants (account, content) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query, account, content).Scan(&applicant.CreatedAt, &applicant.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert applicant %s: %w", account, err)
	}
	return applicant, nil
}

// Delete removes an application. Fails with ErrNotFound if absent.
func (r *ApplicantRepository) Delete(ctx context.Context, account string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM applicants WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("failed to delete applicant %s: %w", account, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s has no pending application", entities.ErrNotFound, account)
	}
	return nil
}
