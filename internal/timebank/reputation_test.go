package timebank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifiedFixture runs one service all the way to Verified.
func verifiedFixture(t *testing.T, e *Engine) (providerID, receiverID, serviceID uint64) {
	t.Helper()
	ctx := context.Background()
	providerID, receiverID, serviceID = requestFixture(t, e, 30)
	require.NoError(t, e.StartService(ctx, alice, serviceID))
	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 30))
	require.NoError(t, e.VerifyService(ctx, bob, serviceID))
	return providerID, receiverID, serviceID
}

func TestLeaveFeedbackUpdatesRunningMean(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, _, serviceID := verifiedFixture(t, e)

	require.NoError(t, e.LeaveFeedback(ctx, bob, serviceID, 80, "great"))

	provider, err := e.GetUser(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.FeedbackCount)
	assert.Equal(t, int64(80), provider.AvgRating)

	f, err := e.GetFeedback(ctx, serviceID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), f.Rating)
	assert.Equal(t, "great", f.Comment)
}

func TestLeaveFeedbackMeanTruncates(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	providerID, _, first := verifiedFixture(t, e)

	// second verified service between the same pair
	s, err := e.GetService(ctx, first)
	require.NoError(t, err)
	second, err := e.RequestService(ctx, bob, providerID, s.SkillID, "again", 30, "")
	require.NoError(t, err)
	require.NoError(t, e.StartService(ctx, alice, second))
	require.NoError(t, e.CompleteService(ctx, alice, second, 30))
	require.NoError(t, e.VerifyService(ctx, bob, second))

	require.NoError(t, e.LeaveFeedback(ctx, bob, first, 80, ""))
	require.NoError(t, e.LeaveFeedback(ctx, bob, second, 85, ""))

	provider, err := e.GetUser(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), provider.FeedbackCount)
	// (80 + 85) / 2 truncates to 82
	assert.Equal(t, int64(82), provider.AvgRating)
}

func TestLeaveFeedbackGuards(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _, serviceID := requestFixture(t, e, 30)

	err := e.LeaveFeedback(ctx, bob, serviceID, 80, "")
	assert.True(t, IsCode(err, CodeServiceNotCompleted))

	require.NoError(t, e.StartService(ctx, alice, serviceID))
	require.NoError(t, e.CompleteService(ctx, alice, serviceID, 30))
	err = e.LeaveFeedback(ctx, bob, serviceID, 80, "")
	assert.True(t, IsCode(err, CodeServiceNotCompleted))

	require.NoError(t, e.VerifyService(ctx, bob, serviceID))

	err = e.LeaveFeedback(ctx, alice, serviceID, 80, "")
	assert.True(t, IsCode(err, CodeNotServiceReceiver))

	err = e.LeaveFeedback(ctx, bob, serviceID, 101, "")
	assert.True(t, IsCode(err, CodeInvalidParameters))

	require.NoError(t, e.LeaveFeedback(ctx, bob, serviceID, 100, ""))
	err = e.LeaveFeedback(ctx, bob, serviceID, 50, "")
	assert.True(t, IsCode(err, CodeFeedbackAlreadyGiven))
}

func TestEndorseSkill(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	providerID := mustRegister(t, e, alice)
	endorserID := mustRegister(t, e, bob)
	skillID := mustListSkill(t, e, alice)

	err := e.EndorseSkill(ctx, alice, skillID, providerID, "I am great")
	assert.True(t, IsCode(err, CodeSelfActionNotAllowed))

	err = e.EndorseSkill(ctx, bob, skillID, providerID+99, "")
	assert.True(t, IsCode(err, CodeUserNotFound))

	err = e.EndorseSkill(ctx, bob, skillID+99, providerID, "")
	assert.True(t, IsCode(err, CodeSkillNotFound))

	// endorsed user must actually list the skill
	err = e.EndorseSkill(ctx, alice, skillID, endorserID, "")
	assert.True(t, IsCode(err, CodeSkillNotFound))

	require.NoError(t, e.EndorseSkill(ctx, bob, skillID, providerID, "really good"))

	err = e.EndorseSkill(ctx, bob, skillID, providerID, "again")
	assert.True(t, IsCode(err, CodeEndorsementAlreadyExists))

	p, err := e.GetSkillProvider(ctx, skillID, providerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.EndorsementCount)

	ok, err := e.HasEndorsed(ctx, skillID, providerID, endorserID)
	require.NoError(t, err)
	assert.True(t, ok)
}
