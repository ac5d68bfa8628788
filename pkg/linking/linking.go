package linking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/rand"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/sirupsen/logrus"
)

const DefaultJoinCodeLength = 6

const (
	StatusNotSignedIn       = "Not signed in."
	StatusInvalidJoinCode   = "Invalid join code."
	StatusAdminsUnavailable = "Could not find admins."
	StatusJoinFailed        = "Failed to join."
	StatusJoined            = "Joined successfully!"
)

var (
	ErrNotSignedIn       = errors.New("not signed in")
	ErrInvalidJoinCode   = errors.New("invalid join code")
	ErrAdminsUnavailable = errors.New("could not find admins")
)

// GenerateJoinCode returns length characters drawn uniformly from [A-Z0-9].
func GenerateJoinCode(length int) string {
	return rand.StringWithUpper(length)
}

// Resolve returns the first admin, in the order given, whose join code equals
// code exactly.
func Resolve(admins []model.AdminRecord, code string) (model.AdminRecord, bool) {
	for _, admin := range admins {
		if admin.JoinCode == code {
			return admin, true
		}
	}
	return model.AdminRecord{}, false
}

// Linker links the signed-in child to the admin owning a join code.
type Linker struct {
	session *session.Session
	screen  ui.Screen
	creds   prefs.Credentials
}

func NewLinker(sess *session.Session, screen ui.Screen, creds prefs.Credentials) *Linker {
	return &Linker{
		session: sess,
		screen:  screen,
		creds:   creds,
	}
}

// Join resolves code against every admin and writes a ChildRecord for the
// signed-in identity. The code is trimmed and upper-cased first, the name is
// trimmed.
func (l *Linker) Join(ctx context.Context, code, childName string) (model.ChildRecord, error) {
	if err := l.session.Ready(ctx); err != nil {
		return model.ChildRecord{}, err
	}
	log := logrus.WithField("component", "linking")

	current := l.session.Auth().CurrentUser()
	if current == nil || current.UID == "" {
		l.screen.SetText(ui.StatusLabel, StatusNotSignedIn)
		return model.ChildRecord{}, ErrNotSignedIn
	}

	code = model.NormalizeJoinCode(code)
	childName = strings.TrimSpace(childName)

	log.Debug("resolving join code")
	admins, err := l.session.DB().ListAdmins()
	if err != nil {
		log.Errorf("error fetching admins: %v", err)
		l.screen.SetText(ui.StatusLabel, StatusAdminsUnavailable)
		return model.ChildRecord{}, fmt.Errorf("%w: %v", ErrAdminsUnavailable, err)
	}

	admin, ok := Resolve(admins, code)
	if !ok {
		l.screen.SetText(ui.StatusLabel, StatusInvalidJoinCode)
		return model.ChildRecord{}, ErrInvalidJoinCode
	}

	child := model.ChildRecord{
		UID:      current.UID,
		Name:     childName,
		AdminUID: admin.UID,
	}
	if err := l.session.DB().SaveChild(child); err != nil {
		log.Errorf("error saving child %s: %v", child.UID, err)
		l.screen.SetText(ui.StatusLabel, StatusJoinFailed)
		return model.ChildRecord{}, fmt.Errorf("saving child: %w", err)
	}
	log.Infof("child %s linked to admin %s", child.UID, admin.UID)

	if err := l.creds.SetChildID(child.UID); err != nil {
		log.Errorf("failed to cache child id: %v", err)
	}

	l.screen.SetText(ui.StatusLabel, StatusJoined)
	l.screen.Hide(ui.ChildJoinPanel)
	l.screen.Show(ui.ChildMainPanel)
	return child, nil
}
