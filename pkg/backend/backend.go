package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acorn-io/kids-market/pkg/auth"
	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden     = errors.New("forbidden to use")
	ErrTitleRequired = errors.New("task title must be provided")
)

type Backend interface {
	CreateSession(email, password string) (model.SessionResponse, error)
	Authenticate(token string) (string, error)
	ListChildren(adminUID string) ([]model.ChildRecord, error)
	CreateTask(adminUID, childUID string, input model.TaskRequest) (model.TaskRecord, error)
	UpdateTask(adminUID, childUID, taskID string, input model.TaskRequest) (model.TaskRecord, error)
	DeleteTask(adminUID, childUID, taskID string) error
	StartPurgerDaemon(done <-chan struct{})
}

type backend struct {
	tokenTTL               time.Duration
	purgeIntervalSeconds   int64
	anonymousMaxAgeSeconds int64

	secret   []byte
	provider *auth.Provider
	db       db.Database
}

func NewBackend(secret []byte, tokenTTL time.Duration, purgeIntervalSecs, anonymousMaxAgeSecs int64, database db.Database) (Backend, error) {
	if len(secret) == 0 {
		return nil, errors.New("a token signing secret is required")
	}
	if purgeIntervalSecs <= 0 {
		return nil, fmt.Errorf("purge interval must be positive, got %d", purgeIntervalSecs)
	}

	return &backend{
		db:                     database,
		provider:               auth.NewProvider(database),
		secret:                 secret,
		tokenTTL:               tokenTTL,
		purgeIntervalSeconds:   purgeIntervalSecs,
		anonymousMaxAgeSeconds: anonymousMaxAgeSecs,
	}, nil
}

// CreateSession exchanges admin credentials for a signed bearer token.
// Child accounts cannot open sessions.
func (b *backend) CreateSession(email, password string) (model.SessionResponse, error) {
	identity, err := b.provider.Verify(email, password)
	if err != nil {
		return model.SessionResponse{}, err
	}

	if _, err := b.db.GetAdmin(identity.UID); errors.Is(err, db.ErrNotFound) {
		logrus.Debugf("session refused for %v: no admin record", identity.UID)
		return model.SessionResponse{}, ErrForbidden
	} else if err != nil {
		return model.SessionResponse{}, err
	}

	token, err := auth.IssueToken(b.secret, identity.UID, b.tokenTTL)
	if err != nil {
		return model.SessionResponse{}, err
	}

	return model.SessionResponse{
		UID:   identity.UID,
		Token: token,
	}, nil
}

// Authenticate resolves a bearer token to its admin. A valid token for an
// admin record that no longer exists is refused.
func (b *backend) Authenticate(token string) (string, error) {
	uid, err := auth.ParseToken(b.secret, token)
	if err != nil {
		return "", err
	}

	if _, err := b.db.GetAdmin(uid); errors.Is(err, db.ErrNotFound) {
		logrus.Debugf("token refused for %v: admin record is gone", uid)
		return "", ErrForbidden
	} else if err != nil {
		return "", err
	}
	return uid, nil
}

func (b *backend) ListChildren(adminUID string) ([]model.ChildRecord, error) {
	logrus.Debugf("list children for admin: %v", adminUID)
	return b.db.ListChildrenByAdmin(adminUID)
}

func (b *backend) CreateTask(adminUID, childUID string, input model.TaskRequest) (model.TaskRecord, error) {
	if _, err := b.ownedChild(adminUID, childUID); err != nil {
		return model.TaskRecord{}, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.TaskRecord{}, ErrTitleRequired
	}

	task := model.TaskRecord{Title: title}
	if input.IsComplete != nil {
		task.IsComplete = *input.IsComplete
	}
	return b.db.SaveTask(childUID, task)
}

// UpdateTask changes the title and/or completion of an existing task. Fields
// left out of input keep their value.
func (b *backend) UpdateTask(adminUID, childUID, taskID string, input model.TaskRequest) (model.TaskRecord, error) {
	child, err := b.ownedChild(adminUID, childUID)
	if err != nil {
		return model.TaskRecord{}, err
	}

	var task *model.TaskRecord
	for i := range child.Tasks {
		if child.Tasks[i].ID == taskID {
			task = &child.Tasks[i]
			break
		}
	}
	if task == nil {
		return model.TaskRecord{}, db.ErrNotFound
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	if input.IsComplete != nil {
		task.IsComplete = *input.IsComplete
	}
	return b.db.SaveTask(childUID, *task)
}

func (b *backend) DeleteTask(adminUID, childUID, taskID string) error {
	if _, err := b.ownedChild(adminUID, childUID); err != nil {
		return err
	}
	return b.db.DeleteTask(childUID, taskID)
}

func (b *backend) ownedChild(adminUID, childUID string) (model.ChildRecord, error) {
	child, err := b.db.GetChild(childUID)
	if err != nil {
		return model.ChildRecord{}, err
	}
	if child.AdminUID != adminUID {
		logrus.Debugf("admin %v does not own child %v", adminUID, childUID)
		return model.ChildRecord{}, ErrForbidden
	}
	return child, nil
}
