// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import "strings"

// ContactsTable represents the 'contacts' table
type ContactsTable struct {
	Table          string
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Birthday       string
	AdditionalInfo string
	CreatedAt      string
	UpdatedAt      string
	UserID         string

	// Unique constraints
	EmailKey string
	PhoneKey string
}

// Contacts is the schema definition for contacts
var Contacts = ContactsTable{
	Table:          "contacts",
	ID:             "id",
	FirstName:      "first_name",
	LastName:       "last_name",
	Email:          "email",
	Phone:          "phone",
	Birthday:       "birthday",
	AdditionalInfo: "additional_info",
	CreatedAt:      "created_at",
	UpdatedAt:      "updated_at",
	UserID:         "user_id",
	EmailKey:       "contacts_user_id_email_key",
	PhoneKey:       "contacts_user_id_phone_key",
}

// Columns returns all standard column names
func (t ContactsTable) Columns() []string {
	return []string{
		t.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.Birthday,
		t.AdditionalInfo, t.CreatedAt, t.UpdatedAt, t.UserID,
	}
}

// SelectList returns the columns joined for a SELECT or RETURNING clause.
func (t ContactsTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
