package services

import (
	"testing"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateGroupAddsCreatorAsMember(t *testing.T) {
	e := newEnv(t)
	creator := e.register(t)

	g, err := e.groups.CreateGroup(e.ctx, creator, gofakeit.Company(), gofakeit.Sentence(6))
	require.NoError(t, err)

	assert.Equal(t, creator, g.Creator)
	assert.Equal(t, []primitive.ObjectID{creator}, g.Members)
	assert.Contains(t, e.user(t, creator).Groups, g.ID)

	_, err = e.groups.CreateGroup(e.ctx, creator, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoinAndLeaveAreIdempotent(t *testing.T) {
	e := newEnv(t)
	creator, u := e.register(t), e.register(t)
	g, err := e.groups.CreateGroup(e.ctx, creator, "Chess", "")
	require.NoError(t, err)

	require.NoError(t, e.groups.Join(e.ctx, u, g.ID))
	require.NoError(t, e.groups.Join(e.ctx, u, g.ID))

	got, err := e.store.Groups.GetGroupByID(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{creator, u}, got.Members)
	assert.Equal(t, []primitive.ObjectID{g.ID}, e.user(t, u).Groups)

	joined := e.events.ofType(events.GroupJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, creator, joined[0].Recipient)

	require.NoError(t, e.groups.Leave(e.ctx, u, g.ID))
	require.NoError(t, e.groups.Leave(e.ctx, u, g.ID))
	got, err = e.store.Groups.GetGroupByID(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{creator}, got.Members)
	assert.Empty(t, e.user(t, u).Groups)
}

func TestCreatorLeavingKeepsCreatorField(t *testing.T) {
	e := newEnv(t)
	creator := e.register(t)
	g, err := e.groups.CreateGroup(e.ctx, creator, "Hiking", "")
	require.NoError(t, err)

	require.NoError(t, e.groups.Leave(e.ctx, creator, g.ID))

	got, err := e.store.Groups.GetGroupByID(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, creator, got.Creator)
	assert.Empty(t, got.Members)
}

func TestJoinUnknownGroup(t *testing.T) {
	e := newEnv(t)
	u := e.register(t)

	err := e.groups.Join(e.ctx, u, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNoSuchEntity)
}

func TestMembershipRepair(t *testing.T) {
	e := newEnv(t)
	creator, u := e.register(t), e.register(t)
	g, err := e.groups.CreateGroup(e.ctx, creator, "Books", "")
	require.NoError(t, err)

	// user is written first; losing the group write leaves a one-sided reference
	got, err := e.store.Groups.GetGroupByID(e.ctx, g.ID)
	require.NoError(t, err)
	uu := e.user(t, u)
	uu.Groups = append(uu.Groups, g.ID)
	require.NoError(t, e.store.Users.ReplaceUser(e.ctx, uu))
	assert.NotContains(t, got.Members, u)

	n, err := e.groups.ReconcileAll(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = e.store.Groups.GetGroupByID(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Members, u)
}

func TestCreateGroupQueuesFailedMirror(t *testing.T) {
	e := newEnv(t)
	creator := e.register(t)

	e.users.failNext(creator)
	g, err := e.groups.CreateGroup(e.ctx, creator, "Film", "")
	require.NoError(t, err)
	assert.Equal(t, 1, e.groups.PendingRepairs())
	assert.NotContains(t, e.user(t, creator).Groups, g.ID)

	n, err := e.groups.RepairPending(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, e.user(t, creator).Groups, g.ID)
}

func TestGroupListings(t *testing.T) {
	e := newEnv(t)
	a, b := e.register(t), e.register(t)
	g1, err := e.groups.CreateGroup(e.ctx, a, "One", "first")
	require.NoError(t, err)
	_, err = e.groups.CreateGroup(e.ctx, b, "Two", "second")
	require.NoError(t, err)
	require.NoError(t, e.groups.Join(e.ctx, b, g1.ID))

	all, err := e.groups.ListGroups(e.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "One", all[0].Name)
	assert.Equal(t, a, all[0].Creator.ID)
	assert.Equal(t, e.user(t, a).FirstName, all[0].Creator.FirstName)
	require.Len(t, all[0].Members, 2)
	assert.Equal(t, b, all[0].Members[1].ID)

	mine, err := e.groups.UserGroups(e.ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, g1.ID, mine[0].ID)

	mine, err = e.groups.UserGroups(e.ctx, b)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	var names []string
	for _, g := range mine {
		names = append(names, g.Name)
	}
	assert.ElementsMatch(t, []string{"One", "Two"}, names)
}
