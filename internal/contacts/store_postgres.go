// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/contactbook/internal/platform/database/schema"
	"github.com/taibuivan/contactbook/internal/platform/dberr"
)

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
List retrieves one page of contacts for userID.

Description: An empty query lists everything; otherwise first name, last name
and email are matched with ILIKE. LIKE wildcards in the query are escaped.
*/
func (store *PostgresStore) List(ctx context.Context, userID int64, filter Filter) ([]Contact, int, error) {
	where := fmt.Sprintf(`%s = $1 AND ($2::text = '' OR %s ILIKE $3 OR %s ILIKE $3 OR %s ILIKE $3)`,
		schema.Contacts.UserID,
		schema.Contacts.FirstName, schema.Contacts.LastName, schema.Contacts.Email,
	)
	pattern := likePattern(filter.Query)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, schema.Contacts.Table, where)
	if err := store.pool.QueryRow(ctx, countQuery, userID, filter.Query, pattern).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_contacts_count_failed")
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s
		OFFSET $4 LIMIT $5`,
		schema.Contacts.SelectList(), schema.Contacts.Table, where, schema.Contacts.ID,
	)

	rows, err := store.pool.Query(ctx, listQuery, userID, filter.Query, pattern, filter.Skip, filter.Limit)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_contacts_list_failed")
	}

	found, err := pgx.CollectRows(rows, collectContact)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_contacts_list_failed")
	}

	return found, total, nil
}

// Get retrieves one contact of userID.
func (store *PostgresStore) Get(ctx context.Context, userID, id int64) (*Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		schema.Contacts.SelectList(), schema.Contacts.Table, schema.Contacts.UserID, schema.Contacts.ID,
	)

	contact, err := scanContact(store.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		return nil, mapError(err, "postgres_contacts_get_failed")
	}
	return &contact, nil
}

// Create inserts a contact owned by userID.
func (store *PostgresStore) Create(ctx context.Context, userID int64, input Input) (*Contact, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`,
		schema.Contacts.Table,
		schema.Contacts.UserID, schema.Contacts.FirstName, schema.Contacts.LastName,
		schema.Contacts.Email, schema.Contacts.Phone, schema.Contacts.Birthday,
		schema.Contacts.AdditionalInfo,
		schema.Contacts.SelectList(),
	)

	contact, err := scanContact(store.pool.QueryRow(ctx, query,
		userID,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
		input.Birthday.Time,
		input.AdditionalInfo,
	))
	if err != nil {
		return nil, mapError(err, "postgres_contacts_create_failed")
	}
	return &contact, nil
}

/*
Update applies patch to one contact of userID.

Description: Absent fields keep their stored value through COALESCE, so a
single statement serves both full and partial updates.
*/
func (store *PostgresStore) Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			%[2]s = COALESCE($3, %[2]s),
			%[3]s = COALESCE($4, %[3]s),
			%[4]s = COALESCE($5, %[4]s),
			%[5]s = COALESCE($6, %[5]s),
			%[6]s = COALESCE($7, %[6]s),
			%[7]s = COALESCE($8, %[7]s),
			%[8]s = NOW()
		WHERE %[9]s = $1 AND %[10]s = $2
		RETURNING %[11]s`,
		schema.Contacts.Table,
		schema.Contacts.FirstName, schema.Contacts.LastName, schema.Contacts.Email,
		schema.Contacts.Phone, schema.Contacts.Birthday, schema.Contacts.AdditionalInfo,
		schema.Contacts.UpdatedAt,
		schema.Contacts.UserID, schema.Contacts.ID,
		schema.Contacts.SelectList(),
	)

	var birthday *time.Time
	if patch.Birthday != nil {
		birthday = &patch.Birthday.Time
	}

	contact, err := scanContact(store.pool.QueryRow(ctx, query,
		userID,
		id,
		patch.FirstName,
		patch.LastName,
		patch.Email,
		patch.Phone,
		birthday,
		patch.AdditionalInfo,
	))
	if err != nil {
		return nil, mapError(err, "postgres_contacts_update_failed")
	}
	return &contact, nil
}

// Delete removes one contact of userID and returns it.
func (store *PostgresStore) Delete(ctx context.Context, userID, id int64) (*Contact, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 RETURNING %s`,
		schema.Contacts.Table, schema.Contacts.UserID, schema.Contacts.ID, schema.Contacts.SelectList(),
	)

	contact, err := scanContact(store.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		return nil, mapError(err, "postgres_contacts_delete_failed")
	}
	return &contact, nil
}

// Birthdays lists contacts of userID whose month and day fall inside window.
func (store *PostgresStore) Birthdays(ctx context.Context, userID int64, window BirthdayRange) ([]Contact, error) {
	monthDay := fmt.Sprintf(`to_char(%s, 'MM-DD')`, schema.Contacts.Birthday)
	if window.FoldLeapDay {
		monthDay = fmt.Sprintf(`CASE WHEN %[1]s = '%[2]s' THEN '%[3]s' ELSE %[1]s END`, monthDay, leapDay, leapDayInLieu)
	}

	condition := fmt.Sprintf(`%s BETWEEN $2 AND $3`, monthDay)
	if window.From > window.To {
		condition = fmt.Sprintf(`(%[1]s >= $2 OR %[1]s <= $3)`, monthDay)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s ORDER BY %s`,
		schema.Contacts.SelectList(), schema.Contacts.Table, schema.Contacts.UserID, condition, schema.Contacts.ID,
	)

	rows, err := store.pool.Query(ctx, query, userID, window.From, window.To)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_contacts_birthdays_failed")
	}

	found, err := pgx.CollectRows(rows, collectContact)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_contacts_birthdays_failed")
	}
	return found, nil
}

// # Helpers

func scanContact(row pgx.Row) (Contact, error) {
	var contact Contact
	err := row.Scan(
		&contact.ID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday.Time,
		&contact.AdditionalInfo,
		&contact.CreatedAt,
		&contact.UpdatedAt,
		&contact.UserID,
	)
	return contact, err
}

func collectContact(row pgx.CollectableRow) (Contact, error) {
	return scanContact(row)
}

// mapError turns pgx failures into the contact error taxonomy.
func mapError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	if dberr.IsUniqueViolation(err) {
		switch dberr.ConstraintName(err) {
		case schema.Contacts.EmailKey:
			return ErrEmailTaken
		case schema.Contacts.PhoneKey:
			return ErrPhoneTaken
		}
	}

	return dberr.Wrap(err, action)
}

// likePattern wraps query in wildcards, escaping the LIKE metacharacters it contains.
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}
