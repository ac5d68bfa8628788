package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/identity"
	"github.com/acorn-io/kids-market/pkg/linking"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/session/sessiontest"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(children ...model.ChildRecord) db.ChildrenSnapshot {
	return db.ChildrenSnapshot{Children: children}
}

func TestApplyIsIdempotent(t *testing.T) {
	screen := ui.NewState()
	v := NewView(nil, screen)

	s := snapshot(
		model.ChildRecord{UID: "c1", Name: "Kid1", Tasks: []model.TaskRecord{
			{ID: "t1", Title: "Dishes", IsComplete: true},
			{ID: "t2", Title: "Homework"},
		}},
		model.ChildRecord{UID: "c2", Name: "Kid2"},
	)

	v.Apply(s)
	once := screen.Children()
	onceText := screen.Text(ui.RosterLabel)

	v.Apply(s)
	assert.Equal(t, once, screen.Children())
	assert.Equal(t, onceText, screen.Text(ui.RosterLabel))

	assert.Equal(t, []string{"Kid1", "Kid2"}, screen.ChildNames())
	assert.Equal(t, "Your Children:\nKid1\nKid2", screen.Text(ui.RosterLabel))
	assert.Equal(t, []ui.TaskEntry{
		{Title: "Dishes", Complete: true},
		{Title: "Homework"},
	}, screen.Children()[0].Tasks)
	assert.Len(t, v.Rendered(), 2)
}

func TestApplyRebuildsFromScratch(t *testing.T) {
	screen := ui.NewState()
	v := NewView(nil, screen)

	v.Apply(snapshot(model.ChildRecord{UID: "c1", Name: "Kid1"}, model.ChildRecord{UID: "c2", Name: "Kid2"}))
	v.Apply(snapshot(model.ChildRecord{UID: "c2", Name: "Kid2"}))
	assert.Equal(t, []string{"Kid2"}, screen.ChildNames())
	assert.Contains(t, v.Rendered(), "c2")
	assert.NotContains(t, v.Rendered(), "c1")

	v.Apply(snapshot())
	assert.Empty(t, screen.Children())
	assert.Empty(t, v.Rendered())
	assert.Equal(t, StatusNoChildren, screen.Text(ui.RosterLabel))
}

func TestApplyPlaceholders(t *testing.T) {
	screen := ui.NewState()
	v := NewView(nil, screen)

	v.Apply(snapshot(model.ChildRecord{UID: "c1", Tasks: []model.TaskRecord{{ID: "t1"}}}))
	require.Len(t, screen.Children(), 1)
	entry := screen.Children()[0]
	assert.Equal(t, "Unnamed", entry.Name)
	assert.Equal(t, []ui.TaskEntry{{Title: "Unnamed Task"}}, entry.Tasks)
	assert.Equal(t, "Your Children:\nUnnamed", screen.Text(ui.RosterLabel))
}

func TestApplyErrorLeavesEntries(t *testing.T) {
	screen := ui.NewState()
	v := NewView(nil, screen)

	v.Apply(snapshot(model.ChildRecord{UID: "c1", Name: "Kid1"}))
	v.Apply(db.ChildrenSnapshot{Err: errors.New("permission denied")})

	assert.Equal(t, StatusFetchFailed, screen.Text(ui.RosterLabel))
	assert.Equal(t, []string{"Kid1"}, screen.ChildNames())
}

func TestStartRequiresSignedInAdmin(t *testing.T) {
	env := sessiontest.New(t, nil)
	screen := ui.NewState()
	v := NewView(env.Session, screen)
	defer v.Close()

	assert.ErrorIs(t, v.Start(context.Background()), ErrNotSignedIn)
	assert.Equal(t, StatusNotSignedIn, screen.Text(ui.RosterLabel))
}

func TestCloseWithoutStart(t *testing.T) {
	v := NewView(nil, ui.NewState())
	v.Close()
	v.Close()

	v.Apply(snapshot(model.ChildRecord{UID: "c1", Name: "Kid1"}))
	assert.Empty(t, v.Rendered())
}

func TestRosterFollowsLinkedChildren(t *testing.T) {
	ctx := context.Background()

	admin := sessiontest.New(t, nil)
	adminScreen := ui.NewState()
	flows := identity.New(admin.Session, adminScreen, prefs.NewCredentialCache(admin.Storage))

	record, err := flows.SignUp(ctx, "a@x.com", "p1", "Ana")
	require.NoError(t, err)
	assert.True(t, adminScreen.Visible(ui.DashboardPanel))

	v := NewView(admin.Session, adminScreen)
	require.NoError(t, v.Start(ctx))
	defer v.Close()
	require.NoError(t, v.Start(ctx))

	require.Eventually(t, func() bool {
		return adminScreen.Text(ui.RosterLabel) == StatusNoChildren
	}, 5*time.Second, 10*time.Millisecond)

	child := sessiontest.Peer(t, admin)
	childScreen := ui.NewState()
	childCreds := prefs.NewCredentialCache(child.Storage)
	_, err = identity.New(child.Session, childScreen, childCreds).SignInAnonymously(ctx)
	require.NoError(t, err)

	_, err = linking.NewLinker(child.Session, childScreen, childCreds).Join(ctx, record.JoinCode, "Kid1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		names := adminScreen.ChildNames()
		return len(names) == 1 && names[0] == "Kid1"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Your Children:\nKid1", adminScreen.Text(ui.RosterLabel))

	linked, err := admin.Session.DB().ListChildrenByAdmin(record.UID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Kid1", linked[0].Name)
}
