package gatekeeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gatekeeper "github.com/contactkit/gatekeeper"
)

func loginIdentity(t *testing.T, engine *gatekeeper.Engine) gatekeeper.Identity {
	t.Helper()
	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	identity, err := engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	return identity
}

func TestContactReadYourWrites(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)
	q := gatekeeper.ListQuery{Limit: 10}

	// Prime the cache with the empty page.
	empty, err := engine.ListContacts(ctx, owner, q)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d", len(empty))
	}

	created, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane", Email: "jane@x.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// The write invalidated the cached page; the next read must see it.
	listed, err := engine.ListContacts(ctx, owner, q)
	if err != nil {
		t.Fatalf("list after create failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("created contact not visible: %+v", listed)
	}
}

func TestContactGetServedFromCache(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)

	created, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	before := engine.Metrics().Value(gatekeeper.MetricCacheHit)
	if _, err := engine.GetContact(ctx, owner, created.ID); err != nil {
		t.Fatalf("first get failed: %v", err)
	}
	if _, err := engine.GetContact(ctx, owner, created.ID); err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if after := engine.Metrics().Value(gatekeeper.MetricCacheHit); after <= before {
		t.Fatal("second get should be a cache hit")
	}
}

func TestContactUpdateAndDeleteInvalidate(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)

	created, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := engine.GetContact(ctx, owner, created.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	created.FirstName = "Janet"
	if _, err := engine.UpdateContact(ctx, owner, created); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := engine.GetContact(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if got.FirstName != "Janet" {
		t.Fatalf("stale contact served after update: %+v", got)
	}

	if err := engine.DeleteContact(ctx, owner, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := engine.GetContact(ctx, owner, created.ID); !errors.Is(err, gatekeeper.ErrContactNotFound) {
		t.Fatalf("deleted contact still served: %v", err)
	}
}

func TestContactReadsDegradeWhenRedisDown(t *testing.T) {
	engine, _, mr := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)

	created, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	mr.Close()

	got, err := engine.GetContact(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("read must degrade to the store, got %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("wrong contact: %+v", got)
	}
	if engine.Metrics().Value(gatekeeper.MetricCacheDegraded) == 0 {
		t.Fatal("degraded read not recorded")
	}
}

func TestContactWriteFailsWhenInvalidationCannotComplete(t *testing.T) {
	engine, _, mr := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)

	mr.Close()

	if _, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane"}); !errors.Is(err, gatekeeper.ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable when invalidation cannot run, got %v", err)
	}
}

func TestContactSearchAndBirthdays(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()
	owner := loginIdentity(t, engine)

	soon := time.Now().AddDate(-30, 0, 3)
	_, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Jane", Email: "jane@x.com", Birthday: soon})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := engine.CreateContact(ctx, owner, gatekeeper.Contact{FirstName: "Bob", Email: "bob@x.com"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := engine.SearchContacts(ctx, owner, gatekeeper.SearchQuery{FirstName: "jan", Limit: 10})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 || found[0].FirstName != "Jane" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	upcoming, err := engine.UpcomingBirthdays(ctx, owner, 7)
	if err != nil {
		t.Fatalf("birthdays failed: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].FirstName != "Jane" {
		t.Fatalf("unexpected birthday result: %+v", upcoming)
	}
}

func TestContactOpsRequireContactStore(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ghost := gatekeeper.Identity{Email: "g@x.com", Role: gatekeeper.Role("superuser")}

	if _, err := engine.ListContacts(context.Background(), ghost, gatekeeper.ListQuery{}); !errors.Is(err, gatekeeper.ErrForbidden) {
		t.Fatalf("invalid role must be forbidden, got %v", err)
	}
}
