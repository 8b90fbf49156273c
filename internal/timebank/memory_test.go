package timebank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mutations made before fn fails must never reach the committed state.
func TestMemoryStoreDiscardsFailedTransaction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.CreateUser(User{OwnerIdentity: "alice", Name: "alice"}); err != nil {
			return err
		}
		if err := tx.PutFund(CommunityFund{Balance: 99}); err != nil {
			return err
		}
		return errors.New("late failure")
	})
	require.Error(t, err)

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		_, err := tx.GetUserByIdentity("alice")
		assert.ErrorIs(t, err, ErrNotFound)
		fund, err := tx.GetFund()
		require.NoError(t, err)
		assert.Equal(t, int64(0), fund.Balance)
		return nil
	}))
}

func TestMemoryStoreIDsStayDenseAcrossRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	failed := store.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.CreateUser(User{OwnerIdentity: "ghost"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, failed)

	var id uint64
	require.NoError(t, store.Atomic(ctx, func(tx Tx) error {
		u, err := tx.CreateUser(User{OwnerIdentity: "alice"})
		if err != nil {
			return err
		}
		id = u.ID
		return nil
	}))
	assert.Equal(t, uint64(1), id)
}

func TestMemoryStoreUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.CreateUser(User{OwnerIdentity: "alice"}); err != nil {
			return err
		}
		_, err := tx.CreateUser(User{OwnerIdentity: "alice"})
		assert.ErrorIs(t, err, ErrConflict)

		if err := tx.CreateProvider(SkillProvider{SkillID: 1, UserID: 1}); err != nil {
			return err
		}
		err = tx.CreateProvider(SkillProvider{SkillID: 1, UserID: 1})
		assert.ErrorIs(t, err, ErrConflict)

		if err := tx.CreateFeedback(Feedback{ServiceID: 7, Rating: 90}); err != nil {
			return err
		}
		err = tx.CreateFeedback(Feedback{ServiceID: 7, Rating: 10})
		assert.ErrorIs(t, err, ErrConflict)
		return nil
	}))
}
