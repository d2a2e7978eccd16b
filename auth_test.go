package gatekeeper_test

import (
	"context"
	"errors"
	"testing"

	gatekeeper "github.com/contactkit/gatekeeper"
)

func TestAuthenticateMissingCredential(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	if _, err := engine.Authenticate(context.Background(), ""); !errors.Is(err, gatekeeper.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAuthenticateCollapsesVerificationFailures(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	inputs := map[string]string{
		"garbage":          "not-a-jwt",
		"tampered":         pair.AccessToken[:len(pair.AccessToken)-4] + "AAAA",
		"wrong token type": pair.RefreshToken,
	}
	for name, input := range inputs {
		if _, err := engine.Authenticate(ctx, input); !errors.Is(err, gatekeeper.ErrInvalidCredential) {
			t.Fatalf("%s: expected ErrInvalidCredential, got %v", name, err)
		}
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	ctx := context.Background()

	users.AddUser(gatekeeper.Identity{
		ID: "u-temp", Email: "temp@example.com",
		PasswordHash: testHash(t), Role: gatekeeper.RoleUser, Confirmed: true,
	})
	pair, err := engine.Login(ctx, "temp@example.com", testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	identity, err := engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if identity.Email != "temp@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	// A token for a subject the provider no longer knows must fail even
	// though the signature still verifies. The cached identity is dropped
	// with a fresh engine pointing at an empty provider.
	engine2, _, _ := newTestEngine(t, nil)
	if _, err := engine2.Authenticate(ctx, pair.AccessToken); !errors.Is(err, gatekeeper.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestAuthenticateAcceptsBearerPrefix(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := engine.Authenticate(ctx, "Bearer "+pair.AccessToken); err != nil {
		t.Fatalf("authenticate with scheme prefix failed: %v", err)
	}
}

func TestAuthenticateUsesIdentityCache(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := engine.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("first authenticate failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("second authenticate failed: %v", err)
	}

	if hits := engine.Metrics().Value(gatekeeper.MetricCacheHit); hits == 0 {
		t.Fatal("expected the second lookup to hit the identity cache")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	_, unknownErr := engine.Login(ctx, "nobody@example.com", testPassword)
	_, wrongPassErr := engine.Login(ctx, testEmail, "wrong-password-1")

	if !errors.Is(unknownErr, gatekeeper.ErrInvalidLogin) {
		t.Fatalf("unknown account: expected ErrInvalidLogin, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, gatekeeper.ErrInvalidLogin) {
		t.Fatalf("wrong password: expected ErrInvalidLogin, got %v", wrongPassErr)
	}
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("error text differs: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginRejectsUnconfirmedAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	if _, err := engine.Login(context.Background(), testUnconfirmed, testPassword); !errors.Is(err, gatekeeper.ErrAccountUnconfirmed) {
		t.Fatalf("expected ErrAccountUnconfirmed, got %v", err)
	}
}

func TestLoginRateLimiting(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *gatekeeper.Config) {
		cfg.RateLimit.MaxLoginAttempts = 2
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, testEmail, "wrong-password-1"); !errors.Is(err, gatekeeper.ErrInvalidLogin) {
			t.Fatalf("attempt %d: expected ErrInvalidLogin, got %v", i, err)
		}
	}
	if _, err := engine.Login(ctx, testEmail, "wrong-password-1"); !errors.Is(err, gatekeeper.ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited on the attempt past the budget, got %v", err)
	}

	// Budget exhausted: even the correct password is throttled now.
	if _, err := engine.Login(ctx, testEmail, testPassword); !errors.Is(err, gatekeeper.ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
}

func TestLoginResetsBudgetOnSuccess(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *gatekeeper.Config) {
		cfg.RateLimit.MaxLoginAttempts = 3
	})
	ctx := context.Background()

	_, _ = engine.Login(ctx, testEmail, "wrong-password-1")
	_, _ = engine.Login(ctx, testEmail, "wrong-password-1")
	if _, err := engine.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login within budget failed: %v", err)
	}

	// Counter was reset, the full budget is available again.
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, testEmail, "wrong-password-1"); !errors.Is(err, gatekeeper.ErrInvalidLogin) {
			t.Fatalf("post-reset attempt %d: expected ErrInvalidLogin, got %v", i, err)
		}
	}
}

func TestLogoutKillsRefreshChain(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := engine.Logout(ctx, testEmail); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, gatekeeper.ErrRevoked) {
		t.Fatalf("expected ErrRevoked after logout, got %v", err)
	}

	// Access tokens are stateless and stay valid until expiry.
	if _, err := engine.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("access token should survive logout: %v", err)
	}
}
