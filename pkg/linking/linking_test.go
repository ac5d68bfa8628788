package linking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/rand"
	"github.com/acorn-io/kids-market/pkg/session/sessiontest"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAdmins struct {
	db.Database
}

func (failingAdmins) ListAdmins() ([]model.AdminRecord, error) {
	return nil, errors.New("connection reset")
}

type failingSave struct {
	db.Database
}

func (failingSave) SaveChild(model.ChildRecord) error {
	return errors.New("permission denied")
}

type fixture struct {
	env    *sessiontest.Env
	screen *ui.State
	creds  *prefs.CredentialCache
	linker *Linker
}

func newFixture(t *testing.T, wrap sessiontest.Wrap) *fixture {
	t.Helper()
	env := sessiontest.New(t, wrap)
	screen := ui.NewState()
	creds := prefs.NewCredentialCache(env.Storage)
	return &fixture{
		env:    env,
		screen: screen,
		creds:  creds,
		linker: NewLinker(env.Session, screen, creds),
	}
}

func (f *fixture) addAdmin(t *testing.T, uid, code string) {
	t.Helper()
	_, err := f.env.Session.DB().CreateAdmin(model.AdminRecord{UID: uid}, func() string { return code })
	require.NoError(t, err)
}

func (f *fixture) signInChild(t *testing.T) string {
	t.Helper()
	identity, err := f.env.Session.Auth().SignInAnonymously(context.Background())
	require.NoError(t, err)
	return identity.UID
}

func TestGenerateJoinCode(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 2000; i++ {
		code := GenerateJoinCode(DefaultJoinCodeLength)
		require.Len(t, code, DefaultJoinCodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(rand.UpperAlphabet, c), "unexpected character %q", c)
			seen[c] = true
		}
	}
	assert.Len(t, seen, len(rand.UpperAlphabet))
}

func TestResolve(t *testing.T) {
	admins := []model.AdminRecord{
		{UID: "a1", JoinCode: "ABC123"},
		{UID: "a2", JoinCode: "XYZ789"},
		{UID: "a3", JoinCode: "XYZ789"},
	}

	tests := []struct {
		name  string
		code  string
		want  string
		found bool
	}{
		{name: "match", code: "ABC123", want: "a1", found: true},
		{name: "first match wins", code: "XYZ789", want: "a2", found: true},
		{name: "case sensitive", code: "abc123", found: false},
		{name: "no match", code: "000000", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, ok := Resolve(admins, tt.code)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, admin.UID)
		})
	}
}

func TestJoinLinksChild(t *testing.T) {
	f := newFixture(t, nil)
	f.addAdmin(t, "a1", "ABC123")
	f.addAdmin(t, "a2", "XYZ789")
	uid := f.signInChild(t)

	child, err := f.linker.Join(context.Background(), "  xyz789 ", "  Kid1 ")
	require.NoError(t, err)
	assert.Equal(t, model.ChildRecord{UID: uid, Name: "Kid1", AdminUID: "a2"}, child)

	stored, err := f.env.Session.DB().GetChild(uid)
	require.NoError(t, err)
	assert.Equal(t, "a2", stored.AdminUID)
	assert.Equal(t, "Kid1", stored.Name)

	cached, ok := f.creds.ChildID()
	assert.True(t, ok)
	assert.Equal(t, uid, cached)

	assert.Equal(t, StatusJoined, f.screen.Text(ui.StatusLabel))
	assert.True(t, f.screen.Visible(ui.ChildMainPanel))
}

func TestJoinInvalidCode(t *testing.T) {
	f := newFixture(t, nil)
	f.addAdmin(t, "a1", "ABC123")
	uid := f.signInChild(t)

	_, err := f.linker.Join(context.Background(), "ZZZZZZ", "Kid1")
	assert.ErrorIs(t, err, ErrInvalidJoinCode)
	assert.Equal(t, StatusInvalidJoinCode, f.screen.Text(ui.StatusLabel))

	_, err = f.env.Session.DB().GetChild(uid)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, ok := f.creds.ChildID()
	assert.False(t, ok)
}

func TestJoinWithNoAdmins(t *testing.T) {
	f := newFixture(t, nil)
	f.signInChild(t)

	_, err := f.linker.Join(context.Background(), "ABC123", "Kid1")
	assert.ErrorIs(t, err, ErrInvalidJoinCode)
	assert.Equal(t, StatusInvalidJoinCode, f.screen.Text(ui.StatusLabel))
}

func TestJoinAdminsUnavailable(t *testing.T) {
	f := newFixture(t, func(d db.Database) db.Database { return failingAdmins{d} })
	uid := f.signInChild(t)

	_, err := f.linker.Join(context.Background(), "ABC123", "Kid1")
	assert.ErrorIs(t, err, ErrAdminsUnavailable)
	assert.False(t, errors.Is(err, ErrInvalidJoinCode))
	assert.Equal(t, StatusAdminsUnavailable, f.screen.Text(ui.StatusLabel))

	_, err = f.env.Session.DB().GetChild(uid)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestJoinSaveFails(t *testing.T) {
	f := newFixture(t, func(d db.Database) db.Database { return failingSave{d} })
	f.addAdmin(t, "a1", "ABC123")
	f.signInChild(t)

	_, err := f.linker.Join(context.Background(), "ABC123", "Kid1")
	assert.Error(t, err)
	assert.Equal(t, StatusJoinFailed, f.screen.Text(ui.StatusLabel))
	assert.False(t, f.screen.Visible(ui.ChildMainPanel))
}

func TestJoinRequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)
	f.addAdmin(t, "a1", "ABC123")

	_, err := f.linker.Join(context.Background(), "ABC123", "Kid1")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, StatusNotSignedIn, f.screen.Text(ui.StatusLabel))
}
