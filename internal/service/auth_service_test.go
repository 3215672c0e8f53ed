package service

import (
	"context"
	"errors"
	"testing"

	"github.com/projektfire/internal/db"
	"github.com/projektfire/internal/ratelimit"
)

func TestAuthService_Authenticate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	if _, err := db.EnsureAdmin(gdb, "admin", "tajne-haslo"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	svc := NewAuthService(gdb, nil)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, " admin ", "tajne-haslo")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	for _, creds := range [][2]string{{"admin", "zle"}, {"ktos", "tajne-haslo"}, {"", ""}} {
		if _, err := svc.Authenticate(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %v, got %v", creds, err)
		}
	}

	ok, err := svc.Exists(ctx, user.ID)
	if err != nil || !ok {
		t.Fatalf("expected admin to exist")
	}
}

func TestAuthService_LoginThrottlesPerClient(t *testing.T) {
	gdb := setupServiceTestDB(t)
	if _, err := db.EnsureAdmin(gdb, "admin", "tajne-haslo"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	svc := NewAuthService(gdb, ratelimit.NewLoginLimiter())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Login(ctx, "10.0.0.1", "admin", "zle"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := svc.Login(ctx, "10.0.0.1", "admin", "tajne-haslo"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if _, err := svc.Login(ctx, "10.0.0.2", "admin", "tajne-haslo"); err != nil {
		t.Fatalf("other client should log in: %v", err)
	}
}
