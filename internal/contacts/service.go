// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/taibuivan/contactbook/internal/platform/ctxutil"
	"github.com/taibuivan/contactbook/pkg/normalize"
)

// monthDayLayout formats the month and day of a date as "MM-DD".
const monthDayLayout = "01-02"

// Service implements the address book use cases.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures a [Service].
type Option func(*Service)

// WithClock replaces the wall clock used for the birthday window.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new contacts [Service].
func NewService(store Store, opts ...Option) *Service {
	service := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// List returns one page of the contacts of userID.
func (service *Service) List(ctx context.Context, userID int64, filter Filter) ([]Contact, int, error) {
	filter.Query = normalize.Text(filter.Query)
	return service.store.List(ctx, userID, filter)
}

// Get returns one contact of userID.
func (service *Service) Get(ctx context.Context, userID, id int64) (*Contact, error) {
	return service.store.Get(ctx, userID, id)
}

// Create adds a contact to the address book of userID.
func (service *Service) Create(ctx context.Context, userID int64, input Input) (*Contact, error) {
	contact, err := service.store.Create(ctx, userID, normalizeInput(input))
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "contact_created",
		slog.Int64("user_id", userID),
		slog.Int64("contact_id", contact.ID),
	)
	return contact, nil
}

// Replace overwrites every field of a contact.
func (service *Service) Replace(ctx context.Context, userID, id int64, input Input) (*Contact, error) {
	input = normalizeInput(input)
	return service.store.Update(ctx, userID, id, Patch{
		FirstName:      &input.FirstName,
		LastName:       &input.LastName,
		Email:          &input.Email,
		Phone:          &input.Phone,
		Birthday:       &input.Birthday,
		AdditionalInfo: input.AdditionalInfo,
	})
}

// Update changes only the fields present in patch.
func (service *Service) Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error) {
	if patch.Empty() {
		return service.store.Get(ctx, userID, id)
	}
	return service.store.Update(ctx, userID, id, normalizePatch(patch))
}

// Delete removes a contact and returns what was deleted.
func (service *Service) Delete(ctx context.Context, userID, id int64) (*Contact, error) {
	contact, err := service.store.Delete(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "contact_deleted",
		slog.Int64("user_id", userID),
		slog.Int64("contact_id", id),
	)
	return contact, nil
}

/*
UpcomingBirthdays lists contacts whose birthday is within the next
[BirthdayWindowDays] days, today included.

Results are ordered by how soon the birthday comes.
*/
func (service *Service) UpcomingBirthdays(ctx context.Context, userID int64) ([]Contact, error) {
	today := service.now()

	found, err := service.store.Birthdays(ctx, userID, BirthdayWindow(today, BirthdayWindowDays))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(found, func(i, j int) bool {
		return daysUntil(found[i].Birthday, today) < daysUntil(found[j].Birthday, today)
	})
	return found, nil
}

// # Birthday Window

const (
	leapDay       = "02-29"
	leapDayInLieu = "03-01"
)

// BirthdayRange is an inclusive span of "MM-DD" days. From after To wraps the new year.
type BirthdayRange struct {
	From string
	To   string

	// FoldLeapDay celebrates "02-29" birthdays on "03-01"; set for common years.
	FoldLeapDay bool
}

// Contains reports whether monthDay, formatted "MM-DD", falls inside the range.
func (r BirthdayRange) Contains(monthDay string) bool {
	if r.FoldLeapDay && monthDay == leapDay {
		monthDay = leapDayInLieu
	}

	if r.From <= r.To {
		return monthDay >= r.From && monthDay <= r.To
	}
	return monthDay >= r.From || monthDay <= r.To
}

// BirthdayWindow returns the range of days from today to today+days.
func BirthdayWindow(today time.Time, days int) BirthdayRange {
	end := today.AddDate(0, 0, days)
	return BirthdayRange{
		From:        today.Format(monthDayLayout),
		To:          end.Format(monthDayLayout),
		FoldLeapDay: !isLeapYear(end.Year()),
	}
}

// InBirthdayWindow reports whether birthday falls within the window computed by [BirthdayWindow].
func InBirthdayWindow(birthday Date, today time.Time, days int) bool {
	return BirthdayWindow(today, days).Contains(birthday.Format(monthDayLayout))
}

// daysUntil counts the days from today to the next occurrence of birthday.
func daysUntil(birthday Date, today time.Time) int {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	next := anniversary(birthday, start.Year())
	if next.Before(start) {
		next = anniversary(birthday, start.Year()+1)
	}
	return int(next.Sub(start).Hours() / 24)
}

// anniversary places birthday in year. Feb 29 normalizes to Mar 1 in common years.
func anniversary(birthday Date, year int) time.Time {
	return time.Date(year, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// # Helpers

func normalizeInput(input Input) Input {
	input.FirstName = normalize.Text(input.FirstName)
	input.LastName = normalize.Text(input.LastName)
	input.Email = normalize.Email(input.Email)
	input.Phone = normalize.Text(input.Phone)
	return input
}

func normalizePatch(patch Patch) Patch {
	patch.FirstName = normalizeOptional(patch.FirstName, normalize.Text)
	patch.LastName = normalizeOptional(patch.LastName, normalize.Text)
	patch.Email = normalizeOptional(patch.Email, normalize.Email)
	patch.Phone = normalizeOptional(patch.Phone, normalize.Text)
	return patch
}

func normalizeOptional(value *string, apply func(string) string) *string {
	if value == nil {
		return nil
	}
	normalized := apply(*value)
	return &normalized
}
