package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/acorn-io/kids-market/pkg/auth"
	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/linking"
	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/sirupsen/logrus"
)

// Route is where Enter sent the admin.
type Route string

const (
	RouteSignUp     Route = "signup"
	RouteSignIn     Route = "signin"
	RouteAutoSignIn Route = "auto-signin"
)

const (
	StatusChildSignedIn     = "Signed in. Enter your name and join code."
	StatusChildSignInFailed = "Failed to sign in."
	StatusWelcomeBack       = "Welcome back!"
)

var ErrNoCachedCredentials = errors.New("no cached admin credentials")

type Flows struct {
	session *session.Session
	screen  ui.Screen
	creds   prefs.Credentials
}

func New(sess *session.Session, screen ui.Screen, creds prefs.Credentials) *Flows {
	return &Flows{
		session: sess,
		screen:  screen,
		creds:   creds,
	}
}

// SignUp creates an admin account with a fresh join code and shows the
// dashboard.
func (f *Flows) SignUp(ctx context.Context, email, password, displayName string) (model.AdminRecord, error) {
	if err := f.session.Ready(ctx); err != nil {
		return model.AdminRecord{}, err
	}
	log := logrus.WithField("component", "identity")
	client := f.session.Auth()

	user, err := client.CreateUserWithEmailAndPassword(ctx, email, password)
	if err != nil {
		f.fail(log, "sign up failed", err)
		return model.AdminRecord{}, err
	}
	if err := client.UpdateProfile(ctx, displayName); err != nil {
		f.fail(log, "sign up failed", err)
		return model.AdminRecord{}, err
	}
	log.Infof("sign up successful, welcome %s", displayName)

	if err := f.creds.SetAdmin(email, password); err != nil {
		log.Errorf("failed to cache admin credentials: %v", err)
	}

	admin, err := f.session.DB().CreateAdmin(model.AdminRecord{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: displayName,
	}, func() string {
		return linking.GenerateJoinCode(linking.DefaultJoinCodeLength)
	})
	if err != nil {
		f.fail(log, "failed to save admin", err)
		return model.AdminRecord{}, err
	}
	log.Infof("admin %s saved", admin.UID)

	f.screen.SetText(ui.JoinCodeLabel, "Join Code: "+admin.JoinCode)
	f.screen.Hide(ui.SignUpPanel)
	f.screen.Show(ui.DashboardPanel)
	return admin, nil
}

// SignIn signs an admin in with credentials typed by the user. The
// credentials are cached before the attempt.
func (f *Flows) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	if err := f.session.Ready(ctx); err != nil {
		return auth.Identity{}, err
	}
	log := logrus.WithField("component", "identity")

	if err := f.creds.SetAdmin(email, password); err != nil {
		log.Errorf("failed to cache admin credentials: %v", err)
	}
	return f.signIn(ctx, log, email, password)
}

// SignInCached retries sign-in with the cached admin credentials.
func (f *Flows) SignInCached(ctx context.Context) (auth.Identity, error) {
	if err := f.session.Ready(ctx); err != nil {
		return auth.Identity{}, err
	}
	log := logrus.WithField("component", "identity")

	email, hasEmail := f.creds.AdminEmail()
	password, hasPassword := f.creds.AdminPassword()
	if !hasEmail || !hasPassword {
		f.screen.Show(ui.SignInPanel)
		return auth.Identity{}, ErrNoCachedCredentials
	}
	return f.signIn(ctx, log, email, password)
}

func (f *Flows) signIn(ctx context.Context, log logrus.FieldLogger, email, password string) (auth.Identity, error) {
	user, err := f.session.Auth().SignInWithEmailAndPassword(ctx, email, password)
	if err != nil {
		f.fail(log, "sign in failed", err)
		return auth.Identity{}, err
	}
	log.WithFields(logrus.Fields{
		"uid":       user.UID,
		"anonymous": user.Anonymous,
	}).Infof("signed in as %s", user.Email)

	f.screen.Hide(ui.SignInPanel)
	f.screen.Show(ui.DashboardPanel)
	return user, nil
}

// Enter decides where an admin lands: a remembered identity with a cached
// password signs in automatically, a remembered identity without one gets the
// sign-in form, and no identity gets the sign-up form.
func (f *Flows) Enter(ctx context.Context) (Route, error) {
	if err := f.session.Ready(ctx); err != nil {
		return "", err
	}
	log := logrus.WithField("component", "identity")

	if f.session.Auth().CurrentUser() == nil {
		log.Info("please log in or sign up")
		f.screen.Show(ui.SignUpPanel)
		return RouteSignUp, nil
	}

	log.Info("welcome back")
	if _, ok := f.creds.AdminPassword(); ok {
		_, err := f.SignInCached(ctx)
		return RouteAutoSignIn, err
	}

	f.screen.Show(ui.SignInPanel)
	return RouteSignIn, nil
}

// SignInAnonymously signs a child in and then checks for an earlier join.
func (f *Flows) SignInAnonymously(ctx context.Context) (auth.Identity, error) {
	if err := f.session.Ready(ctx); err != nil {
		return auth.Identity{}, err
	}
	log := logrus.WithField("component", "identity")

	user, err := f.session.Auth().SignInAnonymously(ctx)
	if err != nil {
		log.Errorf("anonymous sign-in failed: %v", err)
		f.screen.SetText(ui.StatusLabel, StatusChildSignInFailed)
		return auth.Identity{}, err
	}
	log.Infof("child %s signed in anonymously", user.UID)

	f.screen.SetText(ui.StatusLabel, StatusChildSignedIn)
	f.screen.Show(ui.ChildJoinPanel)

	_, err = f.TryAutoLogin(ctx)
	return user, err
}

// TryAutoLogin skips the join form when the cached child id still has a
// ChildRecord. A cached id without one is cleared.
func (f *Flows) TryAutoLogin(ctx context.Context) (bool, error) {
	if err := f.session.Ready(ctx); err != nil {
		return false, err
	}
	log := logrus.WithField("component", "identity")

	uid, ok := f.creds.ChildID()
	if !ok {
		return false, nil
	}

	_, err := f.session.DB().GetChild(uid)
	if errors.Is(err, db.ErrNotFound) {
		log.Infof("no matching child data found for cached id %s", uid)
		if err := f.creds.ClearChildID(); err != nil {
			log.Errorf("failed to clear cached child id: %v", err)
		}
		f.screen.Show(ui.ChildJoinPanel)
		return false, nil
	} else if err != nil {
		log.Errorf("failed to look up child %s: %v", uid, err)
		f.screen.Show(ui.ChildJoinPanel)
		return false, err
	}

	log.Info("auto-login successful, child already joined")
	f.screen.SetText(ui.StatusLabel, StatusWelcomeBack)
	f.screen.Hide(ui.ChildJoinPanel)
	f.screen.Show(ui.ChildMainPanel)
	return true, nil
}

// OpenChildJoin shows the child join form.
func (f *Flows) OpenChildJoin() {
	f.screen.Show(ui.ChildJoinPanel)
}

func (f *Flows) fail(log logrus.FieldLogger, action string, err error) {
	messages := Flatten(err)
	for _, msg := range messages {
		log.Errorf("%s: %s", action, msg)
	}
	f.screen.SetText(ui.StatusLabel, strings.Join(messages, "\n"))
}
