package timebank

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = Caller{Identity: "deployer", Admin: true}
	alice = Caller{Identity: "alice"}
	bob   = Caller{Identity: "bob"}
	carol = Caller{Identity: "carol"}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(NewMemoryStore())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var ticks int64
	e.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	var seq int64
	e.newID = func() string {
		seq++
		return fmt.Sprintf("entry-%d", seq)
	}
	return e
}

func mustRegister(t *testing.T, e *Engine, c Caller) uint64 {
	t.Helper()
	id, err := e.Register(context.Background(), c, c.Identity, "")
	require.NoError(t, err)
	return id
}

// mustListSkill creates a skill and lists the provider under it.
func mustListSkill(t *testing.T, e *Engine, provider Caller) uint64 {
	t.Helper()
	ctx := context.Background()
	skillID, err := e.AddSkillCategory(ctx, admin, "gardening", "yard work", "outdoors")
	require.NoError(t, err)
	require.NoError(t, e.RegisterAsProvider(ctx, provider, skillID, 60, "expert", "weekends"))
	return skillID
}

func TestRegisterGrantsStartingBalance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id := mustRegister(t, e, alice)
	u, err := e.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StartingGrant, u.TimeBalance)
	assert.Equal(t, int64(0), u.TimeContributed)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsArbiter)

	entries, err := e.Ledger(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryGrant, entries[0].Kind)
	assert.Equal(t, StartingGrant, entries[0].Amount)
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, alice)
	_, err := e.Register(ctx, alice, "alice again", "")
	assert.True(t, IsCode(err, CodeAlreadyExists))

	users, err := e.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateProfileKeepsEmptyFields(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id := mustRegister(t, e, alice)
	require.NoError(t, e.UpdateProfile(ctx, alice, "", "loves gardens"))

	u, err := e.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, "loves gardens", u.Bio)
}

func TestSuspendedUserCannotAct(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id := mustRegister(t, e, alice)
	require.NoError(t, e.SuspendUser(ctx, admin, id))

	err := e.UpdateProfile(ctx, alice, "new name", "")
	assert.True(t, IsCode(err, CodeNotAuthorized))

	require.NoError(t, e.ActivateUser(ctx, admin, id))
	assert.NoError(t, e.UpdateProfile(ctx, alice, "new name", ""))
}

func TestSetArbiterRequiresAdmin(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id := mustRegister(t, e, alice)
	mustRegister(t, e, bob)

	err := e.SetArbiter(ctx, bob, id)
	assert.True(t, IsCode(err, CodeNotAuthorized))

	require.NoError(t, e.SetArbiter(ctx, admin, id))
	u, err := e.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.IsArbiter)
}

func TestAddSkillCategoryRequiresAdmin(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustRegister(t, e, alice)

	_, err := e.AddSkillCategory(ctx, alice, "cooking", "", "home")
	assert.True(t, IsCode(err, CodeNotAuthorized))

	id, err := e.AddSkillCategory(ctx, admin, "cooking", "", "home")
	require.NoError(t, err)
	s, err := e.GetSkill(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cooking", s.Name)
}

func TestRegisterAsProviderOncePerSkill(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id := mustRegister(t, e, alice)
	skillID := mustListSkill(t, e, alice)

	err := e.RegisterAsProvider(ctx, alice, skillID, 30, "novice", "")
	assert.True(t, IsCode(err, CodeAlreadyExists))

	err = e.RegisterAsProvider(ctx, alice, skillID+99, 30, "novice", "")
	assert.True(t, IsCode(err, CodeSkillNotFound))

	offers, err := e.OffersSkill(ctx, id, skillID)
	require.NoError(t, err)
	assert.True(t, offers)
}

func TestUnregisteredCallerIsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	err := e.UpdateProfile(ctx, Caller{Identity: "ghost"}, "x", "")
	assert.True(t, IsCode(err, CodeUserNotFound))
	_, err = e.RequestService(ctx, Caller{Identity: "ghost"}, 1, 1, "", 30, "")
	assert.True(t, IsCode(err, CodeUserNotFound))
}

func TestStatsCounts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, alice)
	mustRegister(t, e, bob)
	mustListSkill(t, e, alice)

	st, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Users)
	assert.Equal(t, int64(1), st.Skills)
	assert.Equal(t, int64(0), st.Services)
}
