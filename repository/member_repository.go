package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MemberRepository implements the MemberRepository interface
type MemberRepository struct {
	q Queryable
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db.Pool}
}

func newMemberRepository(tx Queryable) interfaces.MemberRepository {
	return &MemberRepository{q: tx}
}

// Get retrieves a member by account. Returns (nil, nil) if absent.
func (r *MemberRepository) Get(ctx context.Context, account string) (*entities.Member, error) {
	var member entities.Member
	var challenges []byte

	query := `SELECT account, completed_challenges, created_at FROM members WHERE account = $1`
	err := r.q.QueryRow(ctx, query, account).Scan(&member.Account, &challenges, &member.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %s: %w", account, err)
	}
	if err := json.Unmarshal(challenges, &member.CompletedChallenges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed challenges: %w", err)
	}
	return &member, nil
}

// Create adds a member. Fails with ErrDuplicateKey if already present.
func (r *MemberRepository) Create(ctx context.Context, account string) (*entities.Member, error) {
	member := &entities.Member{Account: account}

	query := `INSERT INTO members (account) VALUES ($1) RETURNING created_at`
	if err := r.q.QueryRow(ctx, query, account).Scan(&member.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: account %s is already a member", entities.ErrDuplicateKey, account)
		}
		return nil, fmt.Errorf("failed to create member %s: %w", account, err)
	}
	return member, nil
}

// Update persists the completed-challenge list.
func (r *MemberRepository) Update(ctx context.Context, member *entities.Member) error {
	challenges, err := json.Marshal(member.CompletedChallenges)
	if err != nil {
		return fmt.Errorf("failed to marshal completed challenges: %w", err)
	}

	tag, err := r.q.Exec(ctx, `UPDATE members SET completed_challenges = $2 WHERE account = $1`,
		member.Account, challenges)
	if err != nil {
		return fmt.Errorf("failed to update member %s: %w", member.Account, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s is not a member", entities.ErrNotFound, member.Account)
	}
	return nil
}

// Delete removes a member. Fails with ErrNotFound if absent.
func (r *MemberRepository) Delete(ctx context.Context, account string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM members WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("failed to delete member %s: %w", account, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s is not a member", entities.ErrNotFound, account)
	}
	return nil
}
