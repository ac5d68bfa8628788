package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("the email address or password is incorrect")
	ErrEmailRequired      = errors.New("an email address is required")
	ErrInvalidEmail       = errors.New("the email address is badly formatted")
	ErrPasswordRequired   = errors.New("a password is required")
	ErrUserNotFound       = errors.New("there is no user record corresponding to this identifier")
)

// Identity is the public view of an account.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Anonymous   bool
}

// Provider implements the account operations on top of the store. It keeps
// no per-user state; see Client for the signed-in session.
type Provider struct {
	db   db.Database
	cost int
}

func NewProvider(database db.Database) *Provider {
	return &Provider{
		db:   database,
		cost: bcrypt.DefaultCost,
	}
}

// CreateAccount registers an email/password account. Every validation
// problem is reported at once, joined into a single error. Emails are stored
// lower-cased, so addresses differing only in case are the same account.
func (p *Provider) CreateAccount(email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Identity{}, err
	}

	account := db.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.db.CreateAccount(account); err != nil {
		return Identity{}, fmt.Errorf("create account: %w", err)
	}
	return toIdentity(account), nil
}

func (p *Provider) CreateAnonymous() (Identity, error) {
	account := db.Account{
		UID:       uuid.NewString(),
		Anonymous: true,
	}
	if err := p.db.CreateAccount(account); err != nil {
		return Identity{}, fmt.Errorf("create anonymous account: %w", err)
	}
	return toIdentity(account), nil
}

// Verify checks an email/password pair and returns the matching identity.
func (p *Provider) Verify(email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Identity{}, ErrInvalidCredentials
	}

	account, err := p.db.GetAccountByEmail(email)
	if errors.Is(err, db.ErrNotFound) {
		return Identity{}, ErrInvalidCredentials
	} else if err != nil {
		return Identity{}, err
	}

	if account.PasswordHash == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return toIdentity(account), nil
}

func (p *Provider) Lookup(uid string) (Identity, error) {
	account, err := p.db.GetAccount(uid)
	if errors.Is(err, db.ErrNotFound) {
		return Identity{}, ErrUserNotFound
	} else if err != nil {
		return Identity{}, err
	}
	return toIdentity(account), nil
}

func (p *Provider) UpdateDisplayName(uid, displayName string) error {
	err := p.db.UpdateDisplayName(uid, displayName)
	if errors.Is(err, db.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (p *Provider) DeleteAccount(uid string) error {
	err := p.db.DeleteAccount(uid)
	if errors.Is(err, db.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	var errs []error
	if email == "" {
		errs = append(errs, ErrEmailRequired)
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, ErrInvalidEmail)
	}
	if password == "" {
		errs = append(errs, ErrPasswordRequired)
	}
	return errors.Join(errs...)
}

func toIdentity(account db.Account) Identity {
	return Identity{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Anonymous:   account.Anonymous,
	}
}
