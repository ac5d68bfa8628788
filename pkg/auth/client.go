package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

const currentUserKey = "auth.currentUser"

var (
	ErrNotSignedIn  = errors.New("no user is signed in")
	ErrUserMismatch = errors.New("the supplied credentials do not belong to the signed-in user")
)

// Persistence keeps the signed-in uid across restarts.
type Persistence interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Client is the signed-in side of authentication: it remembers who is
// currently signed in and persists that across process restarts.
type Client struct {
	provider *Provider
	persist  Persistence

	mu      sync.RWMutex
	current *Identity
}

// NewClient restores the previously signed-in identity, if any, from persist.
// A persisted uid whose account no longer exists is forgotten.
func NewClient(provider *Provider, persist Persistence) *Client {
	c := &Client{
		provider: provider,
		persist:  persist,
	}
	c.restore()
	return c
}

func (c *Client) restore() {
	if c.persist == nil {
		return
	}

	uid, ok, err := c.persist.Get(currentUserKey)
	if err != nil {
		logrus.Errorf("failed to read cached user: %v", err)
		return
	}
	if !ok || uid == "" {
		return
	}

	identity, err := c.provider.Lookup(uid)
	if errors.Is(err, ErrUserNotFound) {
		logrus.Infof("cached user %s no longer exists", uid)
		c.forget()
		return
	} else if err != nil {
		logrus.Errorf("failed to restore cached user %s: %v", uid, err)
		return
	}

	c.current = &identity
}

// CurrentUser returns a copy of the signed-in identity, or nil.
func (c *Client) CurrentUser() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	identity := *c.current
	return &identity
}

func (c *Client) CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	identity, err := c.provider.CreateAccount(email, password)
	if err != nil {
		return Identity{}, err
	}
	c.setCurrent(identity)
	return identity, nil
}

func (c *Client) SignInWithEmailAndPassword(ctx context.Context, email, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	identity, err := c.provider.Verify(email, password)
	if err != nil {
		return Identity{}, err
	}
	c.setCurrent(identity)
	return identity, nil
}

// SignInAnonymously keeps an existing anonymous session, otherwise creates a
// new anonymous account and signs it in.
func (c *Client) SignInAnonymously(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	if current := c.CurrentUser(); current != nil && current.Anonymous {
		return *current, nil
	}

	identity, err := c.provider.CreateAnonymous()
	if err != nil {
		return Identity{}, err
	}
	c.setCurrent(identity)
	return identity, nil
}

func (c *Client) UpdateProfile(ctx context.Context, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current := c.CurrentUser()
	if current == nil {
		return ErrNotSignedIn
	}
	if err := c.provider.UpdateDisplayName(current.UID, displayName); err != nil {
		return err
	}

	c.mu.Lock()
	if c.current != nil && c.current.UID == current.UID {
		c.current.DisplayName = displayName
	}
	c.mu.Unlock()
	return nil
}

// Reauthenticate confirms the signed-in user still knows their credentials.
func (c *Client) Reauthenticate(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current := c.CurrentUser()
	if current == nil {
		return ErrNotSignedIn
	}
	identity, err := c.provider.Verify(email, password)
	if err != nil {
		return err
	}
	if identity.UID != current.UID {
		return ErrUserMismatch
	}
	return nil
}

// Delete removes the signed-in account and signs out.
func (c *Client) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current := c.CurrentUser()
	if current == nil {
		return ErrNotSignedIn
	}
	if err := c.provider.DeleteAccount(current.UID); err != nil {
		return err
	}
	c.SignOut()
	return nil
}

func (c *Client) SignOut() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.forget()
}

func (c *Client) setCurrent(identity Identity) {
	c.mu.Lock()
	c.current = &identity
	c.mu.Unlock()

	if c.persist == nil {
		return
	}
	if err := c.persist.Set(currentUserKey, identity.UID); err != nil {
		logrus.Errorf("failed to cache signed-in user: %v", err)
	}
}

func (c *Client) forget() {
	if c.persist == nil {
		return
	}
	if err := c.persist.Delete(currentUserKey); err != nil {
		logrus.Errorf("failed to clear cached user: %v", err)
	}
}
