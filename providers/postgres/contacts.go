package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	gatekeeper "github.com/contactkit/gatekeeper"
)

const contactColumns = `id, owner_id, first_name, last_name, email, phone, COALESCE(birthday, '0001-01-01'::date), notes, created_at, updated_at`

const defaultPageSize = 50

func scanContact(row pgx.Row) (gatekeeper.Contact, error) {
	var c gatekeeper.Contact
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Birthday, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gatekeeper.Contact{}, gatekeeper.ErrContactNotFound
		}
		return gatekeeper.Contact{}, err
	}
	return c, nil
}

func collectContacts(rows pgx.Rows) ([]gatekeeper.Contact, error) {
	defer rows.Close()

	contacts := []gatekeeper.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (p *Provider) CreateContact(ctx context.Context, c gatekeeper.Contact) (gatekeeper.Contact, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO contacts (owner_id, first_name, last_name, email, phone, birthday, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6::date, '0001-01-01'::date), $7)
		RETURNING `+contactColumns,
		c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.Notes,
	)
	return scanContact(row)
}

func (p *Provider) GetContact(ctx context.Context, ownerID string, contactID int64) (gatekeeper.Contact, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+contactColumns+` FROM contacts WHERE owner_id = $1 AND id = $2`,
		ownerID, contactID,
	)
	return scanContact(row)
}

func (p *Provider) UpdateContact(ctx context.Context, c gatekeeper.Contact) (gatekeeper.Contact, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
		    birthday = NULLIF($7::date, '0001-01-01'::date), notes = $8, updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING `+contactColumns,
		c.OwnerID, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.Notes,
	)
	return scanContact(row)
}

func (p *Provider) DeleteContact(ctx context.Context, ownerID string, contactID int64) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM contacts WHERE owner_id = $1 AND id = $2`, ownerID, contactID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gatekeeper.ErrContactNotFound
	}
	return nil
}

func (p *Provider) ListContacts(ctx context.Context, ownerID string, q gatekeeper.ListQuery) ([]gatekeeper.Contact, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	rows, err := p.pool.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, limit, q.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (p *Provider) SearchContacts(ctx context.Context, ownerID string, q gatekeeper.SearchQuery) ([]gatekeeper.Contact, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	clauses := []string{"owner_id = $1"}
	args := []any{ownerID}
	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addFilter("first_name", q.FirstName)
	addFilter("last_name", q.LastName)
	addFilter("email", q.Email)

	args = append(args, limit, q.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM contacts WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		contactColumns, strings.Join(clauses, " AND "), len(args)-1, len(args),
	)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (p *Provider) UpcomingBirthdays(ctx context.Context, ownerID string, from time.Time, days int) ([]gatekeeper.Contact, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days)

	// Month-day string comparison sidesteps year arithmetic; a window
	// crossing December 31 becomes a disjunction of the two partial ranges.
	var condition string
	if start.Year() == end.Year() {
		condition = `to_char(birthday, 'MM-DD') BETWEEN $2 AND $3`
	} else {
		condition = `(to_char(birthday, 'MM-DD') >= $2 OR to_char(birthday, 'MM-DD') <= $3)`
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE owner_id = $1 AND birthday IS NOT NULL AND `+condition+`
		ORDER BY to_char(birthday, 'MM-DD')`,
		ownerID, start.Format("01-02"), end.Format("01-02"),
	)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}
