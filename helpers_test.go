package gatekeeper_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	gatekeeper "github.com/contactkit/gatekeeper"
	"github.com/contactkit/gatekeeper/password"
	"github.com/contactkit/gatekeeper/providers/memory"
)

const (
	testEmail       = "alice@example.com"
	testUnconfirmed = "bob@example.com"
	testPassword    = "correct-horse-battery"
)

func testHash(t *testing.T) string {
	t.Helper()
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	encoded, err := h.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return encoded
}

func testConfig() gatekeeper.Config {
	cfg := gatekeeper.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.RateLimit.EnableRefreshThrottle = false
	return cfg
}

// newTestEngine builds an engine over miniredis and the memory provider,
// seeded with one confirmed and one unconfirmed account.
func newTestEngine(t *testing.T, mutate func(*gatekeeper.Config)) (*gatekeeper.Engine, *memory.Provider, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := memory.NewProvider()
	hash := testHash(t)
	now := time.Now()
	users.AddUser(gatekeeper.Identity{
		ID: "u-alice", Email: testEmail, Username: "alice",
		PasswordHash: hash, Role: gatekeeper.RoleUser, Confirmed: true,
		CreatedAt: now, UpdatedAt: now,
	})
	users.AddUser(gatekeeper.Identity{
		ID: "u-bob", Email: testUnconfirmed, Username: "bob",
		PasswordHash: hash, Role: gatekeeper.RoleUser, Confirmed: false,
		CreatedAt: now, UpdatedAt: now,
	})

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := gatekeeper.New(cfg, gatekeeper.Dependencies{
		Users:    users,
		Contacts: users,
		Redis:    client,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, users, mr
}
