package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memPersistence map[string]string

func (m memPersistence) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memPersistence) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m memPersistence) Delete(key string) error {
	delete(m, key)
	return nil
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "auth.sqlite") + "?_pragma=foreign_keys(1)"
	database, err := db.New(context.Background(), "sqlite", dsn, nil, db.WithPollInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	p := NewProvider(database)
	p.cost = bcrypt.MinCost
	return p
}

func TestCreateAccountValidation(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.CreateAccount("", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 2)

	_, err = p.CreateAccount("not-an-email", "secret")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.False(t, errors.Is(err, ErrPasswordRequired))
}

func TestCreateAndVerify(t *testing.T) {
	p := newTestProvider(t)

	created, err := p.CreateAccount("a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.False(t, created.Anonymous)

	_, err = p.CreateAccount("a@x.com", "other")
	assert.ErrorIs(t, err, db.ErrEmailTaken)

	verified, err := p.Verify("a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, verified.UID)

	_, err = p.Verify("a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Verify("b@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, p.UpdateDisplayName(created.UID, "Ana"))
	found, err := p.Lookup(created.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.DisplayName)

	require.NoError(t, p.DeleteAccount(created.UID))
	_, err = p.Verify("a@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, p.DeleteAccount(created.UID), ErrUserNotFound)
}

func TestEmailsIgnoreCase(t *testing.T) {
	p := newTestProvider(t)

	created, err := p.CreateAccount(" Ana@X.com ", "p1")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", created.Email)

	_, err = p.CreateAccount("ana@x.com", "p2")
	assert.ErrorIs(t, err, db.ErrEmailTaken)

	got, err := p.Verify("ANA@X.COM", "p1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, got.UID)

	_, err = p.Verify("ANA@X.COM", "p2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	persist := memPersistence{}

	c := NewClient(p, persist)
	assert.Nil(t, c.CurrentUser())
	assert.ErrorIs(t, c.UpdateProfile(ctx, "Ana"), ErrNotSignedIn)
	assert.ErrorIs(t, c.Delete(ctx), ErrNotSignedIn)

	created, err := c.CreateUserWithEmailAndPassword(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	require.NoError(t, c.UpdateProfile(ctx, "Ana"))
	assert.Equal(t, "Ana", c.CurrentUser().DisplayName)
	assert.Equal(t, created.UID, persist[currentUserKey])

	// a new client restores the persisted identity
	restored := NewClient(p, persist)
	require.NotNil(t, restored.CurrentUser())
	assert.Equal(t, created.UID, restored.CurrentUser().UID)
	assert.Equal(t, "Ana", restored.CurrentUser().DisplayName)

	assert.NoError(t, restored.Reauthenticate(ctx, "a@x.com", "p1"))
	assert.ErrorIs(t, restored.Reauthenticate(ctx, "a@x.com", "bad"), ErrInvalidCredentials)

	_, err = p.CreateAccount("b@x.com", "p2")
	require.NoError(t, err)
	assert.ErrorIs(t, restored.Reauthenticate(ctx, "b@x.com", "p2"), ErrUserMismatch)

	require.NoError(t, restored.Delete(ctx))
	assert.Nil(t, restored.CurrentUser())
	_, ok := persist[currentUserKey]
	assert.False(t, ok)

	// the first client still points at the deleted account
	_, err = c.SignInWithEmailAndPassword(ctx, "a@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClientForgetsDeletedUser(t *testing.T) {
	p := newTestProvider(t)
	persist := memPersistence{currentUserKey: "missing"}

	c := NewClient(p, persist)
	assert.Nil(t, c.CurrentUser())
	_, ok := persist[currentUserKey]
	assert.False(t, ok)
}

func TestSignInAnonymouslyReusesSession(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	c := NewClient(p, memPersistence{})

	first, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.True(t, first.Anonymous)

	second, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)

	c.SignOut()
	third, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.UID, third.UID)
}

func TestCanceledContext(t *testing.T) {
	p := newTestProvider(t)
	c := NewClient(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SignInAnonymously(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokens(t *testing.T) {
	secret := []byte("secret")

	token, err := IssueToken(secret, "u1", time.Minute)
	require.NoError(t, err)

	uid, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := IssueToken(secret, "u1", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(secret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
