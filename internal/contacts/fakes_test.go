// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/contactbook/internal/contacts"
)

// memoryStore is an in-process [contacts.Store] keyed by contact ID.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	contacts map[int64]contacts.Contact

	lastFilter contacts.Filter
	lastWindow contacts.BirthdayRange
}

func newMemoryStore() *memoryStore {
	return &memoryStore{contacts: map[int64]contacts.Contact{}}
}

func (s *memoryStore) List(_ context.Context, userID int64, filter contacts.Filter) ([]contacts.Contact, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter

	query := strings.ToLower(filter.Query)
	var matched []contacts.Contact
	for _, contact := range s.sorted() {
		if contact.UserID != userID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(contact.FirstName), query) &&
			!strings.Contains(strings.ToLower(contact.LastName), query) &&
			!strings.Contains(strings.ToLower(contact.Email), query) {
			continue
		}
		matched = append(matched, contact)
	}

	total := len(matched)
	if filter.Skip >= total {
		return nil, total, nil
	}
	end := min(filter.Skip+filter.Limit, total)
	return matched[filter.Skip:end], total, nil
}

func (s *memoryStore) Get(_ context.Context, userID, id int64) (*contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok || contact.UserID != userID {
		return nil, contacts.ErrNotFound
	}
	return &contact, nil
}

func (s *memoryStore) Create(_ context.Context, userID int64, input contacts.Input) (*contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conflict(userID, 0, input.Email, input.Phone); err != nil {
		return nil, err
	}

	s.nextID++
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	contact := contacts.Contact{
		ID:             s.nextID,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
		Birthday:       input.Birthday,
		AdditionalInfo: input.AdditionalInfo,
		CreatedAt:      now,
		UpdatedAt:      now,
		UserID:         userID,
	}
	s.contacts[contact.ID] = contact
	return &contact, nil
}

func (s *memoryStore) Update(_ context.Context, userID, id int64, patch contacts.Patch) (*contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok || contact.UserID != userID {
		return nil, contacts.ErrNotFound
	}

	email, phone := contact.Email, contact.Phone
	if patch.Email != nil {
		email = *patch.Email
	}
	if patch.Phone != nil {
		phone = *patch.Phone
	}
	if err := s.conflict(userID, id, email, phone); err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		contact.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		contact.LastName = *patch.LastName
	}
	if patch.Birthday != nil {
		contact.Birthday = *patch.Birthday
	}
	if patch.AdditionalInfo != nil {
		contact.AdditionalInfo = patch.AdditionalInfo
	}
	contact.Email, contact.Phone = email, phone
	contact.UpdatedAt = contact.UpdatedAt.Add(time.Minute)

	s.contacts[id] = contact
	return &contact, nil
}

func (s *memoryStore) Delete(_ context.Context, userID, id int64) (*contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok || contact.UserID != userID {
		return nil, contacts.ErrNotFound
	}
	delete(s.contacts, id)
	return &contact, nil
}

func (s *memoryStore) Birthdays(_ context.Context, userID int64, window contacts.BirthdayRange) ([]contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWindow = window

	var found []contacts.Contact
	for _, contact := range s.sorted() {
		if contact.UserID == userID && window.Contains(contact.Birthday.Format("01-02")) {
			found = append(found, contact)
		}
	}
	return found, nil
}

func (s *memoryStore) sorted() []contacts.Contact {
	all := make([]contacts.Contact, 0, len(s.contacts))
	for _, contact := range s.contacts {
		all = append(all, contact)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (s *memoryStore) conflict(userID, self int64, email, phone string) error {
	for _, contact := range s.contacts {
		if contact.UserID != userID || contact.ID == self {
			continue
		}
		if contact.Email == email {
			return contacts.ErrEmailTaken
		}
		if contact.Phone == phone {
			return contacts.ErrPhoneTaken
		}
	}
	return nil
}

func input(first, email, phone, birthday string) contacts.Input {
	date, err := contacts.ParseDate(birthday)
	if err != nil {
		panic(err)
	}
	return contacts.Input{
		FirstName: first,
		LastName:  "Doe",
		Email:     email,
		Phone:     phone,
		Birthday:  date,
	}
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 9, 30, 0, 0, time.UTC) }
}
