// Package memory provides map-backed UserProvider and ContactStore
// implementations for tests, examples, and single-process deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gatekeeper "github.com/contactkit/gatekeeper"
)

// Provider implements gatekeeper.UserProvider and gatekeeper.ContactStore
// with in-process maps. Safe for concurrent use; the rotation
// compare-and-swap holds the write lock for the whole compare+replace.
type Provider struct {
	mu       sync.RWMutex
	users    map[string]gatekeeper.Identity
	contacts map[string]map[int64]gatekeeper.Contact
	nextID   int64
}

func NewProvider() *Provider {
	return &Provider{
		users:    make(map[string]gatekeeper.Identity),
		contacts: make(map[string]map[int64]gatekeeper.Contact),
	}
}

// AddUser installs or replaces an identity. Seeding helper.
func (p *Provider) AddUser(identity gatekeeper.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[identity.Email] = identity
}

func (p *Provider) GetUserByEmail(_ context.Context, email string) (gatekeeper.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.Identity{}, gatekeeper.ErrUserNotFound
	}
	return identity, nil
}

func (p *Provider) SetRefreshFingerprint(_ context.Context, email, fingerprintHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.ErrUserNotFound
	}
	identity.RefreshFingerprint = fingerprintHash
	identity.UpdatedAt = time.Now()
	p.users[email] = identity
	return nil
}

func (p *Provider) RotateRefreshFingerprint(_ context.Context, email, expectedHash, nextHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.ErrUserNotFound
	}
	if identity.RefreshFingerprint != expectedHash {
		return gatekeeper.ErrFingerprintMismatch
	}
	identity.RefreshFingerprint = nextHash
	identity.UpdatedAt = time.Now()
	p.users[email] = identity
	return nil
}

func (p *Provider) ClearRefreshFingerprint(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.ErrUserNotFound
	}
	identity.RefreshFingerprint = ""
	identity.UpdatedAt = time.Now()
	p.users[email] = identity
	return nil
}

func (p *Provider) MarkConfirmed(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.ErrUserNotFound
	}
	identity.Confirmed = true
	identity.UpdatedAt = time.Now()
	p.users[email] = identity
	return nil
}

// UpdatePasswordHash implements gatekeeper.PasswordUpgrader.
func (p *Provider) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.users[email]
	if !ok {
		return gatekeeper.ErrUserNotFound
	}
	identity.PasswordHash = passwordHash
	identity.UpdatedAt = time.Now()
	p.users[email] = identity
	return nil
}

func (p *Provider) CreateContact(_ context.Context, c gatekeeper.Contact) (gatekeeper.Contact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	c.ID = p.nextID
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	owned, ok := p.contacts[c.OwnerID]
	if !ok {
		owned = make(map[int64]gatekeeper.Contact)
		p.contacts[c.OwnerID] = owned
	}
	owned[c.ID] = c
	return c, nil
}

func (p *Provider) GetContact(_ context.Context, ownerID string, contactID int64) (gatekeeper.Contact, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.contacts[ownerID][contactID]
	if !ok {
		return gatekeeper.Contact{}, gatekeeper.ErrContactNotFound
	}
	return c, nil
}

func (p *Provider) UpdateContact(_ context.Context, c gatekeeper.Contact) (gatekeeper.Contact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.contacts[c.OwnerID][c.ID]
	if !ok {
		return gatekeeper.Contact{}, gatekeeper.ErrContactNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	p.contacts[c.OwnerID][c.ID] = c
	return c, nil
}

func (p *Provider) DeleteContact(_ context.Context, ownerID string, contactID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.contacts[ownerID][contactID]; !ok {
		return gatekeeper.ErrContactNotFound
	}
	delete(p.contacts[ownerID], contactID)
	return nil
}

func (p *Provider) ListContacts(_ context.Context, ownerID string, q gatekeeper.ListQuery) ([]gatekeeper.Contact, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return page(p.owned(ownerID), q.Limit, q.Offset), nil
}

func (p *Provider) SearchContacts(_ context.Context, ownerID string, q gatekeeper.SearchQuery) ([]gatekeeper.Contact, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var matched []gatekeeper.Contact
	for _, c := range p.owned(ownerID) {
		if containsFold(c.FirstName, q.FirstName) &&
			containsFold(c.LastName, q.LastName) &&
			containsFold(c.Email, q.Email) {
			matched = append(matched, c)
		}
	}
	return page(matched, q.Limit, q.Offset), nil
}

func (p *Provider) UpcomingBirthdays(_ context.Context, ownerID string, from time.Time, days int) ([]gatekeeper.Contact, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := start.AddDate(0, 0, days)

	var matched []gatekeeper.Contact
	for _, c := range p.owned(ownerID) {
		if c.Birthday.IsZero() {
			continue
		}
		// Project the birthday into this year and the next to cover
		// windows crossing December 31.
		for _, year := range []int{start.Year(), start.Year() + 1} {
			occurs := time.Date(year, c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, start.Location())
			if !occurs.Before(start) && !occurs.After(end) {
				matched = append(matched, c)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

// owned returns the owner's contacts sorted by ID. Callers hold the lock.
func (p *Provider) owned(ownerID string) []gatekeeper.Contact {
	owned := make([]gatekeeper.Contact, 0, len(p.contacts[ownerID]))
	for _, c := range p.contacts[ownerID] {
		owned = append(owned, c)
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned
}

func page(contacts []gatekeeper.Contact, limit, offset int) []gatekeeper.Contact {
	if offset >= len(contacts) {
		return []gatekeeper.Contact{}
	}
	contacts = contacts[offset:]
	if limit > 0 && limit < len(contacts) {
		contacts = contacts[:limit]
	}
	return contacts
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
