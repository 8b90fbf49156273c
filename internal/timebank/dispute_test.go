package timebank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disputeFixture runs a service to Started and raises a dispute from the
// receiver, plus a registered arbiter (carol).
func disputeFixture(t *testing.T, e *Engine) (providerID, receiverID, arbiterID, disputeID uint64) {
	t.Helper()
	ctx := context.Background()
	var serviceID uint64
	providerID, receiverID, serviceID = requestFixture(t, e, 30)
	require.NoError(t, e.StartService(ctx, alice, serviceID))

	arbiterID = mustRegister(t, e, carol)
	require.NoError(t, e.SetArbiter(ctx, admin, arbiterID))

	var err error
	disputeID, err = e.RaiseDispute(ctx, bob, serviceID, "work never happened")
	require.NoError(t, err)
	return providerID, receiverID, arbiterID, disputeID
}

func TestRaiseDisputeForcesDisputedState(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, _, disputeID := disputeFixture(t, e)

	d, err := e.GetDispute(ctx, disputeID)
	require.NoError(t, err)
	assert.Equal(t, DisputeOpen, d.Status)

	s, err := e.GetService(ctx, d.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, ServiceDisputed, s.Status)

	// the disputed service is frozen for everything but resolution
	err = e.CompleteService(ctx, alice, d.ServiceID, 30)
	assert.True(t, IsCode(err, CodeServiceNotStarted))
	err = e.CancelService(ctx, bob, d.ServiceID)
	assert.True(t, IsCode(err, CodeDisputeAlreadyExists))
	_, err = e.RaiseDispute(ctx, alice, d.ServiceID, "counter")
	assert.True(t, IsCode(err, CodeDisputeAlreadyExists))
}

func TestRaiseDisputeRequiresParticipant(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)
	require.NoError(t, e.StartService(ctx, alice, serviceID))
	mustRegister(t, e, carol)

	_, err := e.RaiseDispute(ctx, carol, serviceID, "bystander")
	assert.True(t, IsCode(err, CodeNotDisputeParticipant))
}

func TestRaiseDisputeStateErrors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)

	_, err := e.RaiseDispute(ctx, bob, serviceID, "too soon")
	assert.True(t, IsCode(err, CodeServiceNotStarted))

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 30))
	require.NoError(t, e.VerifyService(ctx, bob, serviceID))

	_, err = e.RaiseDispute(ctx, bob, serviceID, "too late")
	assert.True(t, IsCode(err, CodeAlreadyVerified))
}

func TestAssignArbiter(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, _, arbiterID, disputeID := disputeFixture(t, e)

	err := e.AssignArbiter(ctx, alice, disputeID, arbiterID)
	assert.True(t, IsCode(err, CodeNotAuthorized))

	err = e.AssignArbiter(ctx, admin, disputeID, providerID)
	assert.True(t, IsCode(err, CodeNotArbiter))

	require.NoError(t, e.AssignArbiter(ctx, admin, disputeID, arbiterID))
	d, err := e.GetDispute(ctx, disputeID)
	require.NoError(t, err)
	require.NotNil(t, d.ArbiterID)
	assert.Equal(t, arbiterID, *d.ArbiterID)
}

func TestResolveDisputeAdjustsReceiver(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, receiverID, arbiterID, disputeID := disputeFixture(t, e)
	require.NoError(t, e.AssignArbiter(ctx, admin, disputeID, arbiterID))

	// receiver already paid the 30 minute hold; a -20 adjustment returns 20
	require.NoError(t, e.ResolveDispute(ctx, carol, disputeID, "partial refund", -20))

	assert.Equal(t, int64(50), balance(t, e, receiverID))
	assert.Equal(t, StartingGrant, balance(t, e, providerID))

	d, err := e.GetDispute(ctx, disputeID)
	require.NoError(t, err)
	assert.Equal(t, DisputeResolved, d.Status)
	assert.Equal(t, int64(-20), d.TimeAdjustment)
	require.NotNil(t, d.ResolvedAt)

	entries, err := e.Ledger(ctx, receiverID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, EntryAdjustment, last.Kind)
	assert.Equal(t, int64(20), last.Amount)
}

func TestResolveDisputeRequiresAssignedArbiter(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, arbiterID, disputeID := disputeFixture(t, e)

	// arbiter flag alone is not enough before assignment
	err := e.ResolveDispute(ctx, carol, disputeID, "early", 0)
	assert.True(t, IsCode(err, CodeNotArbiter))

	require.NoError(t, e.AssignArbiter(ctx, admin, disputeID, arbiterID))
	err = e.ResolveDispute(ctx, bob, disputeID, "not mine to call", 0)
	assert.True(t, IsCode(err, CodeNotArbiter))
}

func TestResolvedDisputeIsTerminal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, arbiterID, disputeID := disputeFixture(t, e)
	require.NoError(t, e.AssignArbiter(ctx, admin, disputeID, arbiterID))
	require.NoError(t, e.ResolveDispute(ctx, carol, disputeID, "done", 0))

	err := e.ResolveDispute(ctx, carol, disputeID, "again", 0)
	assert.True(t, IsCode(err, CodeDisputeAlreadyResolved))

	err = e.AssignArbiter(ctx, admin, disputeID, arbiterID)
	assert.True(t, IsCode(err, CodeDisputeAlreadyResolved))

	// the service stays Disputed after resolution
	d, err := e.GetDispute(ctx, disputeID)
	require.NoError(t, err)
	s, err := e.GetService(ctx, d.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, ServiceDisputed, s.Status)
}
