package repository

import (
	"context"
	"testing"

	"govpay/domain/entities"
	"govpay/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentPaymentRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAssignmentPaymentRepository(testDB.DB)
	ctx := context.Background()

	newPayment := func(assignmentID, periodID int64) *entities.AssignmentPayment {
		return &entities.AssignmentPayment{
			AssignmentID: assignmentID,
			PeriodID:     periodID,
			Recipient:    "alice",
			Amounts: []entities.Quantity{
				entities.NewQuantity(10000, entities.SymbolReward),
				entities.NewQuantity(10000, entities.SymbolVote),
				entities.NewQuantity(19230, entities.SymbolUSD),
			},
		}
	}

	t.Run("create assigns id and stores all amounts", func(t *testing.T) {
		payment := newPayment(7, 1)
		require.NoError(t, repo.Create(ctx, payment))
		assert.NotZero(t, payment.ID)

		payments, err := repo.GetByPeriod(ctx, 1)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, payment.Amounts, payments[0].Amounts)
	})

	t.Run("a second payment for the same pair is a duplicate", func(t *testing.T) {
		err := repo.Create(ctx, newPayment(7, 1))
		assert.ErrorIs(t, err, entities.ErrDuplicateKey)
	})

	t.Run("other periods and assignments are unaffected", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newPayment(7, 2)))
		require.NoError(t, repo.Create(ctx, newPayment(8, 1)))

		payments, err := repo.GetByPeriod(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, payments, 2)
	})

	t.Run("empty period returns no payments", func(t *testing.T) {
		payments, err := repo.GetByPeriod(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}
