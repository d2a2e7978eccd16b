package gatekeeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	gatekeeper "github.com/contactkit/gatekeeper"
)

func TestRefreshRotatesPair(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := engine.Authenticate(ctx, rotated.AccessToken); err != nil {
		t.Fatalf("rotated access token rejected: %v", err)
	}
}

func TestRefreshIsSingleUse(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	// Replaying the spent token is treated as theft and kills the chain.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, gatekeeper.ErrRevoked) {
		t.Fatalf("expected ErrRevoked on replay, got %v", err)
	}
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, gatekeeper.ErrRevoked) {
		t.Fatalf("expected the whole chain revoked after replay, got %v", err)
	}
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = engine.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	var wins, revoked int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, gatekeeper.ErrRevoked):
			revoked++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning rotation, got %d", wins)
	}
	if revoked != attempts-1 {
		t.Fatalf("expected %d revoked attempts, got %d", attempts-1, revoked)
	}
}

func TestRefreshRejectsNonRefreshTokens(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.AccessToken); !errors.Is(err, gatekeeper.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for access token, got %v", err)
	}
	if _, err := engine.Refresh(ctx, "not-a-jwt"); !errors.Is(err, gatekeeper.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for garbage, got %v", err)
	}
}

func TestRefreshRateLimiting(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *gatekeeper.Config) {
		cfg.RateLimit.EnableRefreshThrottle = true
		cfg.RateLimit.MaxRefreshAttempts = 1
	})
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, gatekeeper.ErrRefreshRateLimited) {
		t.Fatalf("expected ErrRefreshRateLimited, got %v", err)
	}
}
