// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/contactbook/internal/contacts"
)

/*
TestBirthdayWindow checks the "MM-DD" bounds, including the year wrap.
*/
func TestBirthdayWindow(t *testing.T) {
	tests := []struct {
		name     string
		today    time.Time
		wantFrom string
		wantTo   string
		wantFold bool
	}{
		{"mid_year", time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), "06-10", "06-17", true},
		{"month_end", time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC), "01-28", "02-04", true},
		{"year_end", time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC), "12-28", "01-04", true},
		{"leap_february", time.Date(2028, 2, 25, 0, 0, 0, 0, time.UTC), "02-25", "03-03", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := contacts.BirthdayWindow(tt.today, contacts.BirthdayWindowDays)
			assert.Equal(t, tt.wantFrom, window.From)
			assert.Equal(t, tt.wantTo, window.To)
			assert.Equal(t, tt.wantFold, window.FoldLeapDay)
		})
	}
}

/*
TestInBirthdayWindow covers inclusive bounds, the wrap into January and leap-day birthdays.
*/
func TestInBirthdayWindow(t *testing.T) {
	december := time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	commonMarch := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	leapMarch := time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC)
	leapFebruary := time.Date(2028, 2, 25, 0, 0, 0, 0, time.UTC)
	leapDay := contacts.NewDate(2000, 2, 29)

	tests := []struct {
		name     string
		today    time.Time
		birthday contacts.Date
		want     bool
	}{
		{"today", june, contacts.NewDate(1990, 6, 10), true},
		{"last_day", june, contacts.NewDate(1990, 6, 17), true},
		{"day_after", june, contacts.NewDate(1990, 6, 18), false},
		{"yesterday", june, contacts.NewDate(1990, 6, 9), false},
		{"wrap_same_year", december, contacts.NewDate(1985, 12, 31), true},
		{"wrap_next_year", december, contacts.NewDate(1985, 1, 4), true},
		{"wrap_past_end", december, contacts.NewDate(1985, 1, 5), false},
		{"wrap_before_start", december, contacts.NewDate(1985, 12, 27), false},
		{"leap_day_on_march_first", commonMarch, leapDay, true},
		{"leap_day_already_passed", leapMarch, leapDay, false},
		{"leap_day_in_leap_year", leapFebruary, leapDay, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contacts.InBirthdayWindow(tt.birthday, tt.today, contacts.BirthdayWindowDays))
		})
	}
}

/*
TestService_UpcomingBirthdays orders results by the next occurrence.
*/
func TestService_UpcomingBirthdays(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := contacts.NewService(store, contacts.WithClock(fixedClock(2026, time.December, 28)))

	_, err := service.Create(ctx, 1, input("January", "jan@example.com", "+1", "1991-01-02"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 1, input("Thirtieth", "dec30@example.com", "+2", "1980-12-30"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 1, input("Today", "today@example.com", "+3", "2000-12-28"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 1, input("Later", "later@example.com", "+4", "2000-02-14"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 2, input("Stranger", "stranger@example.com", "+5", "2000-12-29"))
	require.NoError(t, err)

	found, err := service.UpcomingBirthdays(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, contacts.BirthdayRange{From: "12-28", To: "01-04", FoldLeapDay: true}, store.lastWindow)

	names := make([]string, 0, len(found))
	for _, contact := range found {
		names = append(names, contact.FirstName)
	}
	assert.Equal(t, []string{"Today", "Thirtieth", "January"}, names)
}

/*
TestService_UpcomingBirthdays_LeapDay lists Feb 29 birthdays on Mar 1 of a common year.
*/
func TestService_UpcomingBirthdays_LeapDay(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := contacts.NewService(store, contacts.WithClock(fixedClock(2027, time.February, 27)))

	_, err := service.Create(ctx, 1, input("March", "march@example.com", "+1", "1995-03-02"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 1, input("Leap", "leap@example.com", "+2", "2000-02-29"))
	require.NoError(t, err)
	_, err = service.Create(ctx, 1, input("February", "feb@example.com", "+3", "1993-02-28"))
	require.NoError(t, err)

	found, err := service.UpcomingBirthdays(ctx, 1)
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, contact := range found {
		names = append(names, contact.FirstName)
	}
	assert.Equal(t, []string{"February", "Leap", "March"}, names)
}

/*
TestService_CreateNormalizes trims names and lowercases the email.
*/
func TestService_CreateNormalizes(t *testing.T) {
	ctx := context.Background()
	service := contacts.NewService(newMemoryStore())

	created, err := service.Create(ctx, 1, contacts.Input{
		FirstName: "  Jane   Marie ",
		LastName:  " Doe",
		Email:     "  Jane@Example.COM ",
		Phone:     " +84 90 ",
		Birthday:  contacts.NewDate(1990, 5, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Marie", created.FirstName)
	assert.Equal(t, "Doe", created.LastName)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Equal(t, "+84 90", created.Phone)
	assert.Equal(t, int64(1), created.UserID)
	assert.Nil(t, created.AdditionalInfo)
}

/*
TestService_Ownership hides the contacts of other users.
*/
func TestService_Ownership(t *testing.T) {
	ctx := context.Background()
	service := contacts.NewService(newMemoryStore())

	created, err := service.Create(ctx, 1, input("Jane", "jane@example.com", "+1", "1990-05-01"))
	require.NoError(t, err)

	_, err = service.Get(ctx, 2, created.ID)
	assert.ErrorIs(t, err, contacts.ErrNotFound)

	_, err = service.Delete(ctx, 2, created.ID)
	assert.ErrorIs(t, err, contacts.ErrNotFound)

	name := "Mallory"
	_, err = service.Update(ctx, 2, created.ID, contacts.Patch{FirstName: &name})
	assert.ErrorIs(t, err, contacts.ErrNotFound)

	page, total, err := service.List(ctx, 2, contacts.Filter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

/*
TestService_Duplicates rejects a second contact with the same email or phone.
*/
func TestService_Duplicates(t *testing.T) {
	ctx := context.Background()
	service := contacts.NewService(newMemoryStore())

	_, err := service.Create(ctx, 1, input("Jane", "jane@example.com", "+1", "1990-05-01"))
	require.NoError(t, err)

	_, err = service.Create(ctx, 1, input("Janet", "JANE@example.com", "+2", "1990-05-01"))
	assert.ErrorIs(t, err, contacts.ErrEmailTaken)

	_, err = service.Create(ctx, 1, input("Janet", "janet@example.com", "+1", "1990-05-01"))
	assert.ErrorIs(t, err, contacts.ErrPhoneTaken)

	_, err = service.Create(ctx, 2, input("Jane", "jane@example.com", "+1", "1990-05-01"))
	assert.NoError(t, err)
}

/*
TestService_UpdateAndReplace applies partial and full updates.
*/
func TestService_UpdateAndReplace(t *testing.T) {
	ctx := context.Background()
	service := contacts.NewService(newMemoryStore())

	created, err := service.Create(ctx, 1, input("Jane", "jane@example.com", "+1", "1990-05-01"))
	require.NoError(t, err)

	t.Run("empty_patch_returns_current", func(t *testing.T) {
		got, err := service.Update(ctx, 1, created.ID, contacts.Patch{})
		require.NoError(t, err)
		assert.Equal(t, created.FirstName, got.FirstName)
		assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
	})

	t.Run("partial_patch", func(t *testing.T) {
		email := " New@Example.com"
		info := "met at the conference"
		got, err := service.Update(ctx, 1, created.ID, contacts.Patch{Email: &email, AdditionalInfo: &info})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
		assert.Equal(t, "Jane", got.FirstName)
		require.NotNil(t, got.AdditionalInfo)
		assert.Equal(t, info, *got.AdditionalInfo)
	})

	t.Run("replace", func(t *testing.T) {
		got, err := service.Replace(ctx, 1, created.ID, input(" Joan ", "joan@example.com", "+9", "1970-01-31"))
		require.NoError(t, err)
		assert.Equal(t, "Joan", got.FirstName)
		assert.Equal(t, "joan@example.com", got.Email)
		assert.Equal(t, "+9", got.Phone)
		assert.Equal(t, "1970-01-31", got.Birthday.String())
	})
}

/*
TestService_ListAndDelete paginates, searches and deletes.
*/
func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	service := contacts.NewService(store)

	for _, seed := range []contacts.Input{
		input("Alice", "alice@example.com", "+1", "1990-01-01"),
		input("Bob", "bob@example.com", "+2", "1990-01-02"),
		input("Carol", "carol@example.com", "+3", "1990-01-03"),
	} {
		_, err := service.Create(ctx, 1, seed)
		require.NoError(t, err)
	}

	page, total, err := service.List(ctx, 1, contacts.Filter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Bob", page[0].FirstName)

	page, total, err = service.List(ctx, 1, contacts.Filter{Limit: 10, Query: "  CAROL  "})
	require.NoError(t, err)
	assert.Equal(t, "CAROL", store.lastFilter.Query)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)

	deleted, err := service.Delete(ctx, 1, page[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", deleted.FirstName)

	_, err = service.Get(ctx, 1, deleted.ID)
	assert.ErrorIs(t, err, contacts.ErrNotFound)
}

/*
TestDate_JSON serializes calendar days without a time component.
*/
func TestDate_JSON(t *testing.T) {
	date := contacts.NewDate(1990, time.March, 7)

	encoded, err := date.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"1990-03-07"`, string(encoded))

	var decoded contacts.Date
	require.NoError(t, decoded.UnmarshalJSON([]byte(`"2001-12-31"`)))
	assert.Equal(t, "2001-12-31", decoded.String())

	assert.Error(t, decoded.UnmarshalJSON([]byte(`"31/12/2001"`)))
}
