// Package admin guards catalog editing behind a local password. The
// password is stored only as a bcrypt hash in the settings record.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// MinPasswordLength is the shortest password Setup accepts.
const MinPasswordLength = 4

// Option configures the gate.
type Option func(*Gate)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(g *Gate) {
		g.cost = cost
	}
}

// Gate tracks whether an admin password exists and whether the current
// process has unlocked it. Authentication never outlives the process.
type Gate struct {
	repo domain.Repository
	log  *logger.Logger
	cost int

	mu       sync.Mutex
	settings domain.Settings
	authed   bool
}

// New creates a gate backed by repo.
func New(repo domain.Repository, log *logger.Logger, opts ...Option) *Gate {
	g := &Gate{repo: repo, log: log, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load reads the saved settings. Missing settings mean no password yet.
func (g *Gate) Load(ctx context.Context) error {
	st, err := g.repo.LoadSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		st = domain.Settings{}
	} else if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	g.mu.Lock()
	g.settings = st
	g.authed = false
	g.mu.Unlock()
	return nil
}

// IsSetup reports whether a password has been set.
func (g *Gate) IsSetup() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings.AdminHash != ""
}

// Authenticated reports whether Login succeeded in this process.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authed
}

// Setup sets the first password and logs in. Changing an existing
// password goes through ChangePassword.
func (g *Gate) Setup(ctx context.Context, password string) error {
	if g.IsSetup() {
		return fmt.Errorf("admin password: %w", domain.ErrAlreadyExists)
	}
	return g.setPassword(ctx, password)
}

// ChangePassword replaces the password after checking the old one.
func (g *Gate) ChangePassword(ctx context.Context, old, next string) error {
	if err := g.Login(old); err != nil {
		return err
	}
	return g.setPassword(ctx, next)
}

// Login checks password against the stored hash.
func (g *Gate) Login(password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.settings.AdminHash == "" {
		return domain.ErrAdminNotSetup
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.settings.AdminHash), []byte(password)); err != nil {
		g.log.Warn("admin login failed")
		return domain.ErrUnauthorized
	}
	g.authed = true
	g.log.Info("admin unlocked")
	return nil
}

// Logout drops the authenticated state.
func (g *Gate) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authed = false
}

// Require returns ErrUnauthorized unless the gate is unlocked.
func (g *Gate) Require() error {
	if !g.Authenticated() {
		return domain.ErrUnauthorized
	}
	return nil
}

// SeenGuide reports whether the first-run guide was dismissed.
func (g *Gate) SeenGuide() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings.SeenGuide
}

// MarkGuideSeen records that the first-run guide was dismissed.
func (g *Gate) MarkGuideSeen(ctx context.Context) error {
	g.mu.Lock()
	if g.settings.SeenGuide {
		g.mu.Unlock()
		return nil
	}
	g.settings.SeenGuide = true
	st := g.settings
	g.mu.Unlock()
	return g.repo.SaveSettings(ctx, st)
}

func (g *Gate) setPassword(ctx context.Context, password string) error {
	if len(password) < MinPasswordLength {
		return &domain.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	g.mu.Lock()
	g.settings.AdminHash = string(hash)
	g.authed = true
	st := g.settings
	g.mu.Unlock()

	if err := g.repo.SaveSettings(ctx, st); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	g.log.Info("admin password set")
	return nil
}
