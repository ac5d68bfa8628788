package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.sqlite")

	s := openTestStore(t, path)
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "v2"))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, reopened.Delete("k"))
	require.NoError(t, reopened.Delete("k"))
	_, ok, err = reopened.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialCache(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "prefs.sqlite"))
	var creds Credentials = NewCredentialCache(s)

	_, ok := creds.ChildID()
	assert.False(t, ok)

	require.NoError(t, creds.SetChildID("c1"))
	id, ok := creds.ChildID()
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
	require.NoError(t, creds.ClearChildID())
	_, ok = creds.ChildID()
	assert.False(t, ok)

	require.NoError(t, creds.SetAdmin("a@x.com", "p1"))
	email, ok := creds.AdminEmail()
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", email)
	password, ok := creds.AdminPassword()
	assert.True(t, ok)
	assert.Equal(t, "p1", password)

	// the raw keys are what other builds of the app read
	v, _, err := s.Get(AdminPasswordKey)
	require.NoError(t, err)
	assert.Equal(t, "p1", v)

	require.NoError(t, creds.ClearAdmin())
	_, ok = creds.AdminEmail()
	assert.False(t, ok)
	_, ok = creds.AdminPassword()
	assert.False(t, ok)
}
