// Package auth turns an authenticated session into a ready-to-use account id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/mapper"
	"flynesis-planner/internal/repository"
)

var (
	// ErrNoSession means the caller is not authenticated. Send them to login.
	ErrNoSession = errors.New("auth: no active session")
	// ErrNoAccount means the identity is authenticated but has no planner
	// account linked to it. Send them to signup.
	ErrNoAccount = errors.New("auth: no linked account")
)

// Session is an authenticated identity, for example "tg:123456".
type Session struct {
	UserID string
}

// Bootstrapper resolves sessions to account ids and makes sure the account's
// profile and settings rows exist.
type Bootstrapper struct {
	accounts *repository.AccountRepository
	profiles *repository.ProfileRepository
	settings *repository.SettingsRepository
	autoLink bool
}

// NewBootstrapper builds a bootstrapper. With autoLink set, an authenticated
// identity without an account gets one instead of ErrNoAccount.
func NewBootstrapper(db *gorm.DB, autoLink bool) *Bootstrapper {
	return &Bootstrapper{
		accounts: repository.NewAccountRepository(db),
		profiles: repository.NewProfileRepository(db),
		settings: repository.NewSettingsRepository(db),
		autoLink: autoLink,
	}
}

// Resolve maps the session to its account id.
func (b *Bootstrapper) Resolve(ctx context.Context, session *Session) (string, error) {
	if session == nil || strings.TrimSpace(session.UserID) == "" {
		return "", ErrNoSession
	}
	account, err := b.accounts.FindByAuthUserID(ctx, session.UserID)
	switch {
	case err == nil:
		return account.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !b.autoLink {
			return "", ErrNoAccount
		}
		linked, err := b.accounts.Link(ctx, session.UserID)
		if err != nil {
			return "", fmt.Errorf("auto link %s: %w", session.UserID, err)
		}
		log.Printf("[info] linked identity=%s flyid=%s", session.UserID, linked.ID)
		return linked.ID, nil
	default:
		return "", fmt.Errorf("resolve account: %w", err)
	}
}

// Ensure creates the profile and the default settings row when missing.
// Running it again, or concurrently, is harmless.
func (b *Bootstrapper) Ensure(ctx context.Context, flyID string) error {
	if _, err := b.profiles.GetOrCreate(ctx, flyID); err != nil {
		return err
	}
	defaults := mapper.SettingsToStorage(domain.DefaultSettings(), flyID)
	return b.settings.EnsureDefault(ctx, &defaults)
}

// Bootstrap resolves the session and prepares the account.
func (b *Bootstrapper) Bootstrap(ctx context.Context, session *Session) (string, error) {
	flyID, err := b.Resolve(ctx, session)
	if err != nil {
		return "", err
	}
	if err := b.Ensure(ctx, flyID); err != nil {
		return "", fmt.Errorf("prepare account %s: %w", flyID, err)
	}
	return flyID, nil
}

// Link attaches a planner account to an identity and prepares it.
func (b *Bootstrapper) Link(ctx context.Context, authUserID string) (string, error) {
	if strings.TrimSpace(authUserID) == "" {
		return "", ErrNoSession
	}
	account, err := b.accounts.Link(ctx, authUserID)
	if err != nil {
		return "", err
	}
	if err := b.Ensure(ctx, account.ID); err != nil {
		return "", fmt.Errorf("prepare account %s: %w", account.ID, err)
	}
	return account.ID, nil
}

// Identity is an authenticated identity and the account linked to it.
type Identity struct {
	AuthUserID string
	FlyID      string
}

// Identities lists linked accounts whose identity starts with prefix, oldest
// link first.
func (b *Bootstrapper) Identities(ctx context.Context, prefix string) ([]Identity, error) {
	accounts, err := b.accounts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var out []Identity
	for _, a := range accounts {
		if strings.HasPrefix(a.AuthUserID, prefix) {
			out = append(out, Identity{AuthUserID: a.AuthUserID, FlyID: a.ID})
		}
	}
	return out, nil
}

// RedirectFor returns where a failed bootstrap should send the user. The
// second value is false for errors that are not about identity.
func RedirectFor(err error, loginURL, signupURL string) (string, bool) {
	switch {
	case errors.Is(err, ErrNoSession):
		return loginURL, true
	case errors.Is(err, ErrNoAccount):
		return signupURL, true
	default:
		return "", false
	}
}
