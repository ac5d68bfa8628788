package roster

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

const (
	StatusNotSignedIn = "Not signed in."
	StatusFetchFailed = "Failed to fetch children."
	StatusNoChildren  = "No children linked to this account."
	summaryHeader     = "Your Children:\n"
	unnamedChild      = "Unnamed"
	unnamedTask       = "Unnamed Task"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrClosed      = errors.New("roster view is closed")
)

// View keeps the roster on screen in step with the children linked to the
// signed-in admin. Every snapshot replaces everything rendered before it.
type View struct {
	session *session.Session
	screen  ui.Screen

	mu          sync.Mutex
	unsubscribe func()
	closed      bool
	rendered    map[string]ui.ChildEntry
}

func NewView(sess *session.Session, screen ui.Screen) *View {
	return &View{
		session:  sess,
		screen:   screen,
		rendered: map[string]ui.ChildEntry{},
	}
}

// Start subscribes to the signed-in admin's children. Without a signed-in
// identity the view reports it and never subscribes.
func (v *View) Start(ctx context.Context) error {
	if err := v.session.Ready(ctx); err != nil {
		return err
	}
	log := logrus.WithField("component", "roster")

	current := v.session.Auth().CurrentUser()
	if current == nil || current.UID == "" {
		log.Error("admin not signed in")
		v.screen.SetText(ui.RosterLabel, StatusNotSignedIn)
		return ErrNotSignedIn
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if v.unsubscribe != nil {
		return nil
	}

	log.Debugf("setting up query for admin %s", current.UID)
	v.unsubscribe = v.session.DB().WatchChildren(current.UID).Listen(v.Apply)
	return nil
}

// Apply renders one snapshot. Applying the same snapshot again renders the
// same thing.
func (v *View) Apply(snapshot db.ChildrenSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	if snapshot.Err != nil {
		logrus.WithField("component", "roster").Errorf("children query failed: %v", snapshot.Err)
		v.screen.SetText(ui.RosterLabel, StatusFetchFailed)
		return
	}

	v.screen.ClearChildren()
	maps.Clear(v.rendered)

	if len(snapshot.Children) == 0 {
		v.screen.SetText(ui.RosterLabel, StatusNoChildren)
		return
	}

	names := make([]string, 0, len(snapshot.Children))
	for _, child := range snapshot.Children {
		entry := ui.ChildEntry{Name: child.Name}
		if entry.Name == "" {
			entry.Name = unnamedChild
		}
		for _, task := range child.Tasks {
			title := task.Title
			if title == "" {
				title = unnamedTask
			}
			entry.Tasks = append(entry.Tasks, ui.TaskEntry{
				Title:    title,
				Complete: task.IsComplete,
			})
		}

		v.screen.AddChild(entry)
		v.rendered[child.UID] = entry
		names = append(names, entry.Name)
	}

	v.screen.SetText(ui.RosterLabel, summaryHeader+strings.Join(names, "\n"))
}

// Rendered returns the entries currently on screen keyed by child uid.
func (v *View) Rendered() map[string]ui.ChildEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.rendered)
}

// Close stops the subscription. It is safe to call without Start and more
// than once.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}
