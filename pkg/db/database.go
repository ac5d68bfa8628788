package db

import (
	"errors"

	"github.com/acorn-io/kids-market/pkg/model"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrEmailTaken        = errors.New("email address is already in use")
	ErrJoinCodeExhausted = errors.New("couldn't generate a unique join code")
)

type Database interface {
	CreateAccount(account Account) error
	GetAccount(uid string) (Account, error)
	GetAccountByEmail(email string) (Account, error)
	UpdateDisplayName(uid, displayName string) error
	DeleteAccount(uid string) error
	PurgeStaleAnonymousAccounts(maxAgeSeconds int64) (int64, error)

	CreateAdmin(admin model.AdminRecord, newJoinCode func() string) (model.AdminRecord, error)
	GetAdmin(uid string) (model.AdminRecord, error)
	ListAdmins() ([]model.AdminRecord, error)
	DeleteAdmin(uid string) error

	SaveChild(child model.ChildRecord) error
	GetChild(uid string) (model.ChildRecord, error)
	ListChildren() ([]model.ChildRecord, error)
	ListChildrenByAdmin(adminUID string) ([]model.ChildRecord, error)
	DeleteChild(uid string) error
	PurgeOrphanedChildren() (int64, error)

	SaveTask(childUID string, task model.TaskRecord) (model.TaskRecord, error)
	DeleteTask(childUID, taskID string) error

	WatchChildren(adminUID string) *ChildQuery
	Close() error
}
