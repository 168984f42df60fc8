// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/contactbook/internal/platform/database/schema"
	"github.com/taibuivan/contactbook/internal/platform/dberr"
	"github.com/taibuivan/contactbook/internal/platform/sec"
)

// PostgresDirectory implements the [Directory] interface using pgx.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a new PostgreSQL implementation of the [Directory].
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// FindByID retrieves an account by its numeric ID.
func (directory *PostgresDirectory) FindByID(ctx context.Context, id int64) (*Account, error) {
	return directory.findOne(ctx, "find_by_id", selectBy(schema.Users.ID), id)
}

// FindByUsername retrieves an account by its unique username.
func (directory *PostgresDirectory) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return directory.findOne(ctx, "find_by_username", selectBy(schema.Users.Username), username)
}

// FindByEmail retrieves an account by its unique email address.
func (directory *PostgresDirectory) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return directory.findOne(ctx, "find_by_email", selectBy(schema.Users.Email), email)
}

/*
Create persists a new account into the users table.

The generated ID and creation timestamp are written back into account.

Returns:
  - error: ErrEmailTaken, ErrUsernameTaken or database errors
*/
func (directory *PostgresDirectory) Create(ctx context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s`,
		schema.Users.Table,
		schema.Users.Username, schema.Users.Email, schema.Users.HashedPassword,
		schema.Users.Role, schema.Users.Confirmed, schema.Users.Avatar,
		schema.Users.ID, schema.Users.CreatedAt,
	)

	err := directory.pool.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Confirmed,
		account.Avatar,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			switch dberr.ConstraintName(err) {
			case schema.Users.EmailKey:
				return ErrEmailTaken
			case schema.Users.UsernameKey:
				return ErrUsernameTaken
			}
		}
		return dberr.Wrap(err, "postgres_directory_create_failed")
	}

	return nil
}

// SetConfirmed flips the confirmed flag of the account with the given email.
func (directory *PostgresDirectory) SetConfirmed(ctx context.Context, email string) error {
	return directory.update(ctx, "set_confirmed", updateColumn(schema.Users.Confirmed, "TRUE"), email)
}

// SetPasswordHash replaces the password hash of the account with the given email.
func (directory *PostgresDirectory) SetPasswordHash(ctx context.Context, email, hash string) error {
	return directory.update(ctx, "set_password_hash", updateColumn(schema.Users.HashedPassword, "$2"), email, hash)
}

// SetAvatar replaces the avatar URL of the account with the given email.
func (directory *PostgresDirectory) SetAvatar(ctx context.Context, email, avatarURL string) error {
	return directory.update(ctx, "set_avatar", updateColumn(schema.Users.Avatar, "$2"), email, avatarURL)
}

// SetRole changes the role of the account with the given email.
func (directory *PostgresDirectory) SetRole(ctx context.Context, email string, role sec.UserRole) error {
	return directory.update(ctx, "set_role", updateColumn(schema.Users.Role, "$2"), email, role)
}

// # Helpers

func selectBy(column string) string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, schema.Users.SelectList(), schema.Users.Table, column)
}

// updateColumn builds an UPDATE of one column keyed by email ($1).
func updateColumn(column, value string) string {
	return fmt.Sprintf(`UPDATE %s SET %s = %s WHERE %s = $1`, schema.Users.Table, column, value, schema.Users.Email)
}

func (directory *PostgresDirectory) findOne(ctx context.Context, action, query string, arg any) (*Account, error) {
	account := &Account{}
	err := directory.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Confirmed,
		&account.Avatar,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_directory_%s_failed: %w", action, err)
	}

	return account, nil
}

func (directory *PostgresDirectory) update(ctx context.Context, action, query string, args ...any) error {
	tag, err := directory.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_directory_%s_failed: %w", action, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}
