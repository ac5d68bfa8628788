package prefs

import (
	"errors"

	"github.com/sirupsen/logrus"
)

const (
	ChildUserIDKey   = "ChildUserId"
	AdminEmailKey    = "AdminEmail"
	AdminPasswordKey = "AdminPassword"
)

// KeyValue is the storage a CredentialCache sits on.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Credentials is every read and write of locally cached sign-in material.
// The admin password is stored in plaintext; swapping this implementation
// for secure storage or a refresh token must not change any caller.
type Credentials interface {
	ChildID() (string, bool)
	SetChildID(uid string) error
	ClearChildID() error

	AdminEmail() (string, bool)
	AdminPassword() (string, bool)
	SetAdmin(email, password string) error
	ClearAdmin() error
}

type CredentialCache struct {
	kv KeyValue
}

func NewCredentialCache(kv KeyValue) *CredentialCache {
	return &CredentialCache{kv: kv}
}

func (c *CredentialCache) ChildID() (string, bool) {
	return c.get(ChildUserIDKey)
}

func (c *CredentialCache) SetChildID(uid string) error {
	return c.kv.Set(ChildUserIDKey, uid)
}

func (c *CredentialCache) ClearChildID() error {
	return c.kv.Delete(ChildUserIDKey)
}

func (c *CredentialCache) AdminEmail() (string, bool) {
	return c.get(AdminEmailKey)
}

func (c *CredentialCache) AdminPassword() (string, bool) {
	return c.get(AdminPasswordKey)
}

func (c *CredentialCache) SetAdmin(email, password string) error {
	return errors.Join(
		c.kv.Set(AdminEmailKey, email),
		c.kv.Set(AdminPasswordKey, password),
	)
}

func (c *CredentialCache) ClearAdmin() error {
	return errors.Join(
		c.kv.Delete(AdminEmailKey),
		c.kv.Delete(AdminPasswordKey),
	)
}

// get treats a read error or an empty value as absent.
func (c *CredentialCache) get(key string) (string, bool) {
	v, ok, err := c.kv.Get(key)
	if err != nil {
		logrus.Errorf("failed to read %s from local storage: %v", key, err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
