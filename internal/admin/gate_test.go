package admin

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
	"github.com/hammamikhairi/hotpot/internal/storage"
)

func newGate(repo domain.Repository) *Gate {
	return New(repo, logger.New(logger.LevelOff, nil), WithCost(bcrypt.MinCost))
}

func TestSetupAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore(logger.New(logger.LevelOff, nil))
	g := newGate(repo)
	if err := g.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if g.IsSetup() {
		t.Fatal("fresh gate should not be set up")
	}
	if err := g.Login("anything"); !errors.Is(err, domain.ErrAdminNotSetup) {
		t.Fatalf("expected ErrAdminNotSetup, got %v", err)
	}
	if err := g.Setup(ctx, "abc"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected short password to fail validation, got %v", err)
	}
	if err := g.Setup(ctx, "mala"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !g.Authenticated() {
		t.Fatal("setup should log in")
	}
	if err := g.Setup(ctx, "other"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	st, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if st.AdminHash == "" || st.AdminHash == "mala" {
		t.Fatalf("stored hash looks wrong: %q", st.AdminHash)
	}

	// A new process starts locked.
	again := newGate(repo)
	if err := again.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if again.Authenticated() || again.Require() == nil {
		t.Fatal("reloaded gate must start locked")
	}
	if err := again.Login("wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := again.Login("mala"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := again.Require(); err != nil {
		t.Fatalf("Require after login: %v", err)
	}
	again.Logout()
	if again.Authenticated() {
		t.Fatal("logout should lock")
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	g := newGate(storage.NewMemoryStore(logger.New(logger.LevelOff, nil)))
	g.Load(ctx)
	g.Setup(ctx, "first")

	if err := g.ChangePassword(ctx, "nope", "second"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := g.ChangePassword(ctx, "first", "second"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := g.Login("first"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatal("old password should stop working")
	}
	if err := g.Login("second"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestGuideFlagPersists(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore(logger.New(logger.LevelOff, nil))
	g := newGate(repo)
	g.Load(ctx)

	if g.SeenGuide() {
		t.Fatal("guide should start unseen")
	}
	if err := g.MarkGuideSeen(ctx); err != nil {
		t.Fatalf("MarkGuideSeen: %v", err)
	}

	again := newGate(repo)
	again.Load(ctx)
	if !again.SeenGuide() {
		t.Fatal("guide flag should survive a reload")
	}
}
