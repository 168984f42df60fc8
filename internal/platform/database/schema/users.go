// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column names shared by the PostgreSQL stores.
package schema

import "strings"

// UsersTable represents the 'users' table
type UsersTable struct {
	Table          string
	ID             string
	Username       string
	Email          string
	HashedPassword string
	Role           string
	Confirmed      string
	Avatar         string
	CreatedAt      string

	// Unique constraints
	EmailKey    string
	UsernameKey string
}

// Users is the schema definition for users
var Users = UsersTable{
	Table:          "users",
	ID:             "id",
	Username:       "username",
	Email:          "email",
	HashedPassword: "hashed_password",
	Role:           "role",
	Confirmed:      "confirmed",
	Avatar:         "avatar",
	CreatedAt:      "created_at",
	EmailKey:       "users_email_key",
	UsernameKey:    "users_username_key",
}

// Columns returns all standard column names
func (t UsersTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.HashedPassword, t.Role, t.Confirmed, t.Avatar, t.CreatedAt,
	}
}

// SelectList returns the columns joined for a SELECT or RETURNING clause.
func (t UsersTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
