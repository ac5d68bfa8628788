package deletion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

const (
	StatusNoUser       = "No user is currently logged in."
	StatusReauthFailed = "Reauthentication failed. Check your email/password."
	StatusDeleted      = "Account successfully deleted."
	StatusDeleteFailed = "Failed to delete user."
)

var (
	ErrNoUser       = errors.New("no user is currently logged in")
	ErrReauthFailed = errors.New("reauthentication failed")
)

// Report counts what the cascade removed before the identity was deleted.
type Report struct {
	ChildrenDeleted int
	ChildrenFailed  int
	AdminDeleted    bool
}

// Workflow deletes the signed-in admin together with every linked child.
type Workflow struct {
	session *session.Session
	screen  ui.Screen
	creds   prefs.Credentials
}

func New(sess *session.Session, screen ui.Screen, creds prefs.Credentials) *Workflow {
	return &Workflow{
		session: sess,
		screen:  screen,
		creds:   creds,
	}
}

func (w *Workflow) Confirm() {
	w.screen.Show(ui.DeleteConfirmPanel)
}

func (w *Workflow) Cancel() {
	w.screen.Hide(ui.DeleteConfirmPanel)
}

// Run reauthenticates with the cached credentials, deletes the linked
// children and the admin record concurrently, waits for all of them, and only
// then deletes the identity. Record deletions are not rolled back if the
// identity deletion fails.
func (w *Workflow) Run(ctx context.Context) (Report, error) {
	if err := w.session.Ready(ctx); err != nil {
		return Report{}, err
	}
	log := logrus.WithField("component", "deletion")
	client := w.session.Auth()

	current := client.CurrentUser()
	if current == nil {
		w.screen.SetText(ui.StatusLabel, StatusNoUser)
		log.Info(StatusNoUser)
		return Report{}, ErrNoUser
	}
	uid := current.UID

	email, _ := w.creds.AdminEmail()
	password, _ := w.creds.AdminPassword()
	if err := client.Reauthenticate(ctx, email, password); err != nil {
		log.Errorf("reauthentication failed: %v", err)
		w.screen.SetText(ui.StatusLabel, StatusReauthFailed)
		return Report{}, fmt.Errorf("%w: %v", ErrReauthFailed, err)
	}

	report := w.cascade(log, uid)

	if err := client.Delete(ctx); err != nil {
		log.Errorf("failed to delete user %s: %v", uid, err)
		w.screen.SetText(ui.StatusLabel, StatusDeleteFailed)
		return report, fmt.Errorf("deleting user: %w", err)
	}
	log.Infof("user %s deleted", uid)

	if err := w.creds.ClearAdmin(); err != nil {
		log.Errorf("failed to clear cached admin credentials: %v", err)
	}

	w.screen.Hide(ui.DeleteConfirmPanel)
	w.screen.Hide(ui.DashboardPanel)
	w.screen.SetText(ui.StatusLabel, StatusDeleted)
	return report, nil
}

// cascade removes the admin record and every child linked to uid. Failures
// are logged and counted; they never stop the remaining deletions.
func (w *Workflow) cascade(log logrus.FieldLogger, uid string) Report {
	database := w.session.DB()

	var (
		mu     sync.Mutex
		report Report
		wg     conc.WaitGroup
	)

	wg.Go(func() {
		children, err := database.ListChildren()
		if err != nil {
			log.Errorf("failed to fetch children for cleanup: %v", err)
			return
		}

		for _, child := range children {
			if child.AdminUID != uid {
				continue
			}
			childUID := child.UID
			wg.Go(func() {
				err := database.DeleteChild(childUID)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.ChildrenFailed++
					log.Warnf("failed to delete child %s: %v", childUID, err)
					return
				}
				report.ChildrenDeleted++
				log.Infof("deleted child %s", childUID)
			})
		}
	})

	wg.Go(func() {
		err := database.DeleteAdmin(uid)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Errorf("failed to delete admin %s: %v", uid, err)
			return
		}
		report.AdminDeleted = true
		log.Infof("deleted admin %s", uid)
	})

	wg.Wait()
	return report
}
