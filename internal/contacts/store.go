// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts

import "context"

// Store defines the persistence contract for contacts.
//
// Every method takes the owner ID; rows of other owners are never visible.
type Store interface {

	/*
		List returns one page of contacts matching filter.

		Returns:
		  - []Contact: The page, ordered by ID
		  - int: Total number of matching contacts
		  - error: Storage failures
	*/
	List(ctx context.Context, userID int64, filter Filter) ([]Contact, int, error)

	// Get returns one contact or ErrNotFound.
	Get(ctx context.Context, userID, id int64) (*Contact, error)

	// Create inserts a contact and returns it with generated fields filled in.
	Create(ctx context.Context, userID int64, input Input) (*Contact, error)

	// Update applies patch and returns the stored result, or ErrNotFound.
	Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error)

	// Delete removes a contact and returns it, or ErrNotFound.
	Delete(ctx context.Context, userID, id int64) (*Contact, error)

	/*
		Birthdays returns contacts whose birthday falls inside window.

		See [BirthdayRange.Contains] for the matching rules.
	*/
	Birthdays(ctx context.Context, userID int64, window BirthdayRange) ([]Contact, error)
}
