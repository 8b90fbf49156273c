package timebank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestFixture registers a provider and a receiver, lists one skill and
// creates a pending service with the given estimate.
func requestFixture(t *testing.T, e *Engine, estimated int64) (providerID, receiverID, serviceID uint64) {
	t.Helper()
	ctx := context.Background()
	providerID = mustRegister(t, e, alice)
	receiverID = mustRegister(t, e, bob)
	skillID := mustListSkill(t, e, alice)
	var err error
	serviceID, err = e.RequestService(ctx, bob, providerID, skillID, "weeding", estimated, "back garden")
	require.NoError(t, err)
	return providerID, receiverID, serviceID
}

func balance(t *testing.T, e *Engine, id uint64) int64 {
	t.Helper()
	b, err := e.Balance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestRequestServiceValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	providerID := mustRegister(t, e, alice)
	bobID := mustRegister(t, e, bob)
	skillID := mustListSkill(t, e, alice)

	_, err := e.RequestService(ctx, alice, providerID, skillID, "", 30, "")
	assert.True(t, IsCode(err, CodeSelfActionNotAllowed))

	_, err = e.RequestService(ctx, bob, providerID+99, skillID, "", 30, "")
	assert.True(t, IsCode(err, CodeUserNotFound))

	_, err = e.RequestService(ctx, bob, providerID, skillID+99, "", 30, "")
	assert.True(t, IsCode(err, CodeSkillNotFound))

	_, err = e.RequestService(ctx, bob, providerID, skillID, "", 0, "")
	assert.True(t, IsCode(err, CodeInvalidParameters))

	// bob lists nothing, so requesting from bob fails on the listing check
	mustRegister(t, e, carol)
	_, err = e.RequestService(ctx, carol, bobID, skillID, "", 30, "")
	assert.True(t, IsCode(err, CodeSkillNotFound))
}

func TestRequestServiceMovesNoBalance(t *testing.T) {
	e := newTestEngine(t)
	providerID, receiverID, serviceID := requestFixture(t, e, 30)

	s, err := e.GetService(context.Background(), serviceID)
	require.NoError(t, err)
	assert.Equal(t, ServicePending, s.Status)
	assert.Equal(t, StartingGrant, balance(t, e, providerID))
	assert.Equal(t, StartingGrant, balance(t, e, receiverID))
}

func TestStartServiceDebitsEstimate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, receiverID, serviceID := requestFixture(t, e, 30)

	err := e.StartService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeNotServiceProvider))

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	assert.Equal(t, int64(30), balance(t, e, receiverID))

	s, err := e.GetService(ctx, serviceID)
	require.NoError(t, err)
	assert.Equal(t, ServiceStarted, s.Status)
	require.NotNil(t, s.StartedAt)

	err = e.StartService(ctx, alice, serviceID)
	assert.True(t, IsCode(err, CodeServiceAlreadyStarted))
}

func TestStartServiceMayDriveBalanceNegative(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, receiverID, serviceID := requestFixture(t, e, 90)

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	assert.Equal(t, int64(-30), balance(t, e, receiverID))
}

func TestCompleteAndVerifySettlesActualMinutes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, receiverID, serviceID := requestFixture(t, e, 30)

	require.NoError(t, e.StartService(ctx, alice, serviceID))

	err := e.CompleteService(ctx, bob, serviceID, 45)
	assert.True(t, IsCode(err, CodeNotServiceProvider))

	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 45))
	s, err := e.GetService(ctx, serviceID)
	require.NoError(t, err)
	assert.Equal(t, ServiceCompleted, s.Status)
	require.NotNil(t, s.ActualMinutes)
	assert.Equal(t, int64(45), *s.ActualMinutes)

	// settlement happens on verify, not on complete
	assert.Equal(t, StartingGrant, balance(t, e, providerID))

	err = e.VerifyService(ctx, alice, serviceID)
	assert.True(t, IsCode(err, CodeNotServiceReceiver))

	require.NoError(t, e.VerifyService(ctx, bob, serviceID))
	assert.Equal(t, int64(105), balance(t, e, providerID))
	assert.Equal(t, int64(30), balance(t, e, receiverID))

	provider, err := e.GetUser(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(45), provider.TimeContributed)

	err = e.VerifyService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeAlreadyVerified))
}

func TestCompleteServiceStateErrors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)

	err := e.CompleteService(ctx, alice, serviceID, 45)
	assert.True(t, IsCode(err, CodeServiceNotStarted))

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	err = e.CompleteService(ctx, alice, serviceID, -1)
	assert.True(t, IsCode(err, CodeInvalidParameters))

	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 45))
	err = e.CompleteService(ctx, alice, serviceID, 45)
	assert.True(t, IsCode(err, CodeAlreadyCompleted))
}

func TestVerifyBeforeCompleteIsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)

	err := e.VerifyService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeServiceNotCompleted))

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	err = e.VerifyService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeServiceNotCompleted))
}

func TestCancelPendingService(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, receiverID, serviceID := requestFixture(t, e, 30)

	err := e.CancelService(ctx, carol, serviceID)
	assert.True(t, IsCode(err, CodeUserNotFound))

	require.NoError(t, e.CancelService(ctx, bob, serviceID))
	assert.Equal(t, StartingGrant, balance(t, e, receiverID))

	err = e.CancelService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeServiceAlreadyCanceled))

	err = e.StartService(ctx, alice, serviceID)
	assert.True(t, IsCode(err, CodeServiceAlreadyCanceled))
}

func TestCancelStartedServiceRefundsEstimate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, receiverID, serviceID := requestFixture(t, e, 90)

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	assert.Equal(t, int64(-30), balance(t, e, receiverID))

	require.NoError(t, e.CancelService(ctx, alice, serviceID))
	assert.Equal(t, StartingGrant, balance(t, e, receiverID))

	entries, err := e.Ledger(ctx, receiverID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, EntryEscrowHold, entries[1].Kind)
	assert.Equal(t, EntryRefund, entries[2].Kind)
}

func TestCancelAfterCompletionIsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 30))

	err := e.CancelService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeAlreadyCompleted))

	require.NoError(t, e.VerifyService(ctx, bob, serviceID))
	err = e.CancelService(ctx, bob, serviceID)
	assert.True(t, IsCode(err, CodeAlreadyVerified))
}

func TestListServicesForUser(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, receiverID, _ := requestFixture(t, e, 30)

	forProvider, err := e.ListServicesForUser(ctx, providerID)
	require.NoError(t, err)
	forReceiver, err := e.ListServicesForUser(ctx, receiverID)
	require.NoError(t, err)
	assert.Len(t, forProvider, 1)
	assert.Equal(t, forProvider, forReceiver)

	outsiderID := mustRegister(t, e, carol)
	forOutsider, err := e.ListServicesForUser(ctx, outsiderID)
	require.NoError(t, err)
	assert.Empty(t, forOutsider)
}
