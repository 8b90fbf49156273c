package timebank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	id := mustRegister(t, e, alice)

	require.NoError(t, e.Donate(ctx, alice, 20))
	assert.Equal(t, int64(40), balance(t, e, id))

	fund, err := e.FundBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), fund)

	entries, err := e.Ledger(ctx, id)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, EntryDonation, last.Kind)
	assert.Equal(t, int64(-20), last.Amount)
}

func TestDonateRequiresCoverage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	id := mustRegister(t, e, alice)

	err := e.Donate(ctx, alice, 61)
	assert.True(t, IsCode(err, CodeInsufficientBalance))
	assert.Equal(t, StartingGrant, balance(t, e, id))

	err = e.Donate(ctx, alice, 0)
	assert.True(t, IsCode(err, CodeInvalidParameters))

	// an exactly drained balance blocks further donations
	require.NoError(t, e.Donate(ctx, alice, 60))
	err = e.Donate(ctx, alice, 1)
	assert.True(t, IsCode(err, CodeInsufficientBalance))
}

func TestAllocate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustRegister(t, e, alice)
	bobID := mustRegister(t, e, bob)
	require.NoError(t, e.Donate(ctx, alice, 20))

	err := e.Allocate(ctx, alice, bobID, 15, "")
	assert.True(t, IsCode(err, CodeNotAuthorized))

	err = e.Allocate(ctx, admin, bobID+99, 15, "")
	assert.True(t, IsCode(err, CodeUserNotFound))

	err = e.Allocate(ctx, admin, bobID, 21, "")
	assert.True(t, IsCode(err, CodeInsufficientBalance))

	require.NoError(t, e.Allocate(ctx, admin, bobID, 15, "hardship grant"))
	assert.Equal(t, int64(75), balance(t, e, bobID))

	entries, err := e.Ledger(ctx, bobID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, EntryAllocation, last.Kind)
	assert.Equal(t, "hardship grant", last.Reference)

	fund, err := e.FundBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), fund)
}

// A rejected transaction must leave no partial effects behind.
func TestAtomicRollbackOnRejection(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	id := mustRegister(t, e, alice)
	require.NoError(t, e.Donate(ctx, alice, 10))

	before, err := e.Ledger(ctx, id)
	require.NoError(t, err)

	err = e.Allocate(ctx, admin, id, 11, "")
	assert.True(t, IsCode(err, CodeInsufficientBalance))

	after, err := e.Ledger(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	fund, err := e.FundBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), fund)
	assert.Equal(t, int64(50), balance(t, e, id))
}
