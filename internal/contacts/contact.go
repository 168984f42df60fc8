// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package contacts implements the per-user address book.

Every operation is scoped to the owning account: a contact that belongs to
another user is reported as not found.

# Architecture

  - [Service]: normalization, partial updates and the upcoming-birthday window.
  - [Store]: persistence contract, implemented on PostgreSQL by [PostgresStore].
  - [Handler]: the REST endpoints mounted at /api/contacts.
*/
package contacts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/taibuivan/contactbook/internal/platform/apperr"
	"github.com/taibuivan/contactbook/internal/platform/validate"
)

// # Domain Entities

// Contact is one entry of a user's address book.
type Contact struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       Date      `json:"birthday"`
	AdditionalInfo *string   `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UserID         int64     `json:"user_id"`
}

// Input carries every writable field of a contact.
type Input struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Birthday       Date
	AdditionalInfo *string
}

// Patch carries the fields of a partial update; nil fields are left unchanged.
type Patch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Birthday       *Date
	AdditionalInfo *string
}

// Empty reports whether the patch changes nothing.
func (patch Patch) Empty() bool {
	return patch.FirstName == nil && patch.LastName == nil && patch.Email == nil &&
		patch.Phone == nil && patch.Birthday == nil && patch.AdditionalInfo == nil
}

// Filter narrows a contact listing.
type Filter struct {
	Skip  int
	Limit int

	// Query matches first name, last name or email, case-insensitively.
	Query string
}

// # Calendar Date

// Date is a calendar day serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the calendar day of year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(validate.DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("contacts: invalid date %q: %w", value, err)
	}
	return Date{parsed}, nil
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return d.Format(validate.DateLayout)
}

// MarshalJSON implements [json.Marshaler].
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

// # Validation Rules

const (
	NameMinLength           = 2
	NameMaxLength           = 50
	EmailMaxLength          = 100
	PhoneMaxLength          = 50
	AdditionalInfoMaxLength = 250
	QueryMaxLength          = 50

	// BirthdayWindowDays is how far ahead upcoming birthdays are listed, today included.
	BirthdayWindowDays = 7
)

// Field names used in validation errors.
const (
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldBirthday       = "birthday"
	FieldAdditionalInfo = "additional_info"
	FieldQuery          = "q"
)

// # Errors

var (
	// ErrNotFound is returned for absent contacts and contacts of other users.
	ErrNotFound = apperr.NotFound("Contact")

	// ErrEmailTaken and ErrPhoneTaken report duplicates within one address book.
	ErrEmailTaken = apperr.Conflict("A contact with this email already exists")
	ErrPhoneTaken = apperr.Conflict("A contact with this phone number already exists")
)
