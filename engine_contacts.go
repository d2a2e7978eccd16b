package gatekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contactkit/gatekeeper/contactcache"
)

// GetContact serves one contact through the cache-aside layer. A cache
// outage degrades the read to the store; it never fails the request.
func (e *Engine) GetContact(ctx context.Context, owner Identity, contactID int64) (Contact, error) {
	if err := e.Require(ctx, owner, OpContactRead); err != nil {
		return Contact{}, err
	}
	if e.contacts == nil {
		return Contact{}, ErrNotConfigured
	}

	var contact Contact
	raw, outcome, err := e.contactCache.ReadThrough(ctx, owner.ID, contactcache.ContactKey(contactID),
		func(ctx context.Context) ([]byte, error) {
			loaded, err := e.contacts.GetContact(ctx, owner.ID, contactID)
			if err != nil {
				return nil, err
			}
			contact = loaded
			return json.Marshal(loaded)
		})
	e.recordCacheOutcome(outcome)
	if err != nil {
		return Contact{}, contactStoreErr(err)
	}

	if outcome == contactcache.OutcomeHit {
		if err := json.Unmarshal(raw, &contact); err != nil {
			loaded, err := e.contacts.GetContact(ctx, owner.ID, contactID)
			if err != nil {
				return Contact{}, contactStoreErr(err)
			}
			return loaded, nil
		}
	}
	return contact, nil
}

// ListContacts serves a contact page through the cache. Each distinct
// pagination tuple caches independently under the owner's namespace.
func (e *Engine) ListContacts(ctx context.Context, owner Identity, q ListQuery) ([]Contact, error) {
	if err := e.Require(ctx, owner, OpContactRead); err != nil {
		return nil, err
	}
	if e.contacts == nil {
		return nil, ErrNotConfigured
	}

	entry := contactcache.ListKey(q.Limit, q.Offset)
	return e.readContactsThrough(ctx, owner.ID, entry, func(ctx context.Context) ([]Contact, error) {
		return e.contacts.ListContacts(ctx, owner.ID, q)
	})
}

// SearchContacts serves filtered reads through the cache keyed by the
// full filter tuple.
func (e *Engine) SearchContacts(ctx context.Context, owner Identity, q SearchQuery) ([]Contact, error) {
	if err := e.Require(ctx, owner, OpContactRead); err != nil {
		return nil, err
	}
	if e.contacts == nil {
		return nil, ErrNotConfigured
	}

	entry := contactcache.SearchKey(q.FirstName, q.LastName, q.Email, q.Limit, q.Offset)
	return e.readContactsThrough(ctx, owner.ID, entry, func(ctx context.Context) ([]Contact, error) {
		return e.contacts.SearchContacts(ctx, owner.ID, q)
	})
}

// UpcomingBirthdays reads straight from the store. The window moves with
// the clock, so cached results would answer a different question within
// one TTL.
func (e *Engine) UpcomingBirthdays(ctx context.Context, owner Identity, days int) ([]Contact, error) {
	if err := e.Require(ctx, owner, OpContactRead); err != nil {
		return nil, err
	}
	if e.contacts == nil {
		return nil, ErrNotConfigured
	}

	contacts, err := e.contacts.UpcomingBirthdays(ctx, owner.ID, time.Now(), days)
	if err != nil {
		return nil, contactStoreErr(err)
	}
	return contacts, nil
}

// CreateContact writes to the store and then invalidates every cached
// view the owner has. The invalidation runs before success is reported;
// if it cannot complete the caller gets an error even though the row
// landed, keeping read-your-writes intact once the cache returns.
func (e *Engine) CreateContact(ctx context.Context, owner Identity, c Contact) (Contact, error) {
	if err := e.Require(ctx, owner, OpContactWrite); err != nil {
		return Contact{}, err
	}
	if e.contacts == nil {
		return Contact{}, ErrNotConfigured
	}

	c.OwnerID = owner.ID
	created, err := e.contacts.CreateContact(ctx, c)
	if err != nil {
		return Contact{}, contactStoreErr(err)
	}

	if err := e.invalidateContacts(ctx, owner.ID); err != nil {
		return Contact{}, err
	}
	return created, nil
}

// UpdateContact replaces a contact's fields and invalidates the owner's
// cached views before reporting success.
func (e *Engine) UpdateContact(ctx context.Context, owner Identity, c Contact) (Contact, error) {
	if err := e.Require(ctx, owner, OpContactWrite); err != nil {
		return Contact{}, err
	}
	if e.contacts == nil {
		return Contact{}, ErrNotConfigured
	}

	c.OwnerID = owner.ID
	updated, err := e.contacts.UpdateContact(ctx, c)
	if err != nil {
		return Contact{}, contactStoreErr(err)
	}

	if err := e.invalidateContacts(ctx, owner.ID); err != nil {
		return Contact{}, err
	}
	return updated, nil
}

// DeleteContact removes a contact and invalidates the owner's cached
// views before reporting success.
func (e *Engine) DeleteContact(ctx context.Context, owner Identity, contactID int64) error {
	if err := e.Require(ctx, owner, OpContactWrite); err != nil {
		return err
	}
	if e.contacts == nil {
		return ErrNotConfigured
	}

	if err := e.contacts.DeleteContact(ctx, owner.ID, contactID); err != nil {
		return contactStoreErr(err)
	}
	return e.invalidateContacts(ctx, owner.ID)
}

func (e *Engine) readContactsThrough(ctx context.Context, ownerID, entry string, load func(context.Context) ([]Contact, error)) ([]Contact, error) {
	var contacts []Contact
	raw, outcome, err := e.contactCache.ReadThrough(ctx, ownerID, entry,
		func(ctx context.Context) ([]byte, error) {
			loaded, err := load(ctx)
			if err != nil {
				return nil, err
			}
			contacts = loaded
			return json.Marshal(loaded)
		})
	e.recordCacheOutcome(outcome)
	if err != nil {
		return nil, contactStoreErr(err)
	}

	if outcome == contactcache.OutcomeHit {
		if err := json.Unmarshal(raw, &contacts); err != nil {
			return load(ctx)
		}
	}
	return contacts, nil
}

// InvalidateContactCache drops every cached contact view for the owner.
// Exposed for callers that mutate contacts outside the engine, e.g. bulk
// imports writing straight to the store.
func (e *Engine) InvalidateContactCache(ctx context.Context, ownerID string) error {
	return e.invalidateContacts(ctx, ownerID)
}

// invalidateContacts drops every cached contact view for the owner. A
// nil cache has nothing stale to drop.
func (e *Engine) invalidateContacts(ctx context.Context, ownerID string) error {
	if e.contactCache == nil {
		return nil
	}
	if err := e.contactCache.InvalidateOwner(ctx, ownerID); err != nil {
		e.metrics.Inc(MetricCacheDegraded)
		return fmt.Errorf("contact write committed but cache invalidation failed: %w", err)
	}
	e.metrics.Inc(MetricCacheInvalidation)
	return nil
}

func contactStoreErr(err error) error {
	if errors.Is(err, ErrContactNotFound) || errors.Is(err, ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
