package gatekeeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	gatekeeper "github.com/contactkit/gatekeeper"
	"github.com/contactkit/gatekeeper/providers/memory"
)

func newAuditedEngine(t *testing.T) (*gatekeeper.Engine, <-chan gatekeeper.AuditEvent) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := memory.NewProvider()
	now := time.Now()
	users.AddUser(gatekeeper.Identity{
		ID: "u-alice", Email: testEmail, Username: "alice",
		PasswordHash: testHash(t), Role: gatekeeper.RoleUser, Confirmed: true,
		CreatedAt: now, UpdatedAt: now,
	})

	sink := gatekeeper.NewAuditChannelSink(64)
	engine, err := gatekeeper.New(testConfig(), gatekeeper.Dependencies{
		Users:     users,
		Contacts:  users,
		Redis:     client,
		AuditSink: sink,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, sink.Events()
}

func waitForAudit(t *testing.T, events <-chan gatekeeper.AuditEvent, kind string) gatekeeper.AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Kind == kind {
				return event
			}
		case <-deadline:
			t.Fatalf("no %q audit event arrived", kind)
		}
	}
}

func TestLoginEmitsAuditTrail(t *testing.T) {
	engine, events := newAuditedEngine(t)
	ctx := gatekeeper.WithClientIP(context.Background(), "203.0.113.7")

	if _, err := engine.Login(ctx, testEmail, "wrong-password-entirely"); err == nil {
		t.Fatal("bad password accepted")
	}
	failure := waitForAudit(t, events, gatekeeper.AuditLogin)
	if failure.Success {
		t.Fatalf("failed login audited as success: %+v", failure)
	}
	if failure.IP != "203.0.113.7" {
		t.Fatalf("client IP not carried into the event: %+v", failure)
	}
	if failure.Cause == "" {
		t.Fatal("failure event must name a cause")
	}

	if _, err := engine.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	success := waitForAudit(t, events, gatekeeper.AuditLogin)
	if !success.Success || success.Subject != testEmail {
		t.Fatalf("unexpected success event: %+v", success)
	}
	if success.Timestamp.IsZero() {
		t.Fatal("event missing timestamp")
	}
}

func TestRefreshReuseIsAudited(t *testing.T) {
	engine, events := newAuditedEngine(t)
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// Replaying the rotated-out token is the theft signal.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatal("replayed refresh token accepted")
	}
	reuse := waitForAudit(t, events, gatekeeper.AuditRefreshReuse)
	if reuse.Success || reuse.Subject != testEmail {
		t.Fatalf("unexpected reuse event: %+v", reuse)
	}
}
