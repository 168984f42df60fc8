// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

const testPassword = "correct horse"

// # Directory

type memoryDirectory struct {
	mu       sync.Mutex
	accounts map[int64]*auth.Account
	nextID   int64
	findErr  error
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{accounts: map[int64]*auth.Account{}}
}

func (d *memoryDirectory) find(match func(*auth.Account) bool) (*auth.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findErr != nil {
		return nil, d.findErr
	}
	for _, account := range d.accounts {
		if match(account) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (d *memoryDirectory) FindByID(_ context.Context, id int64) (*auth.Account, error) {
	return d.find(func(a *auth.Account) bool { return a.ID == id })
}

func (d *memoryDirectory) FindByUsername(_ context.Context, username string) (*auth.Account, error) {
	return d.find(func(a *auth.Account) bool { return a.Username == username })
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	return d.find(func(a *auth.Account) bool { return a.Email == email })
}

func (d *memoryDirectory) Create(_ context.Context, account *auth.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.accounts {
		if existing.Email == account.Email {
			return auth.ErrEmailTaken
		}
		if existing.Username == account.Username {
			return auth.ErrUsernameTaken
		}
	}

	d.nextID++
	account.ID = d.nextID
	account.CreatedAt = time.Now().UTC()
	clone := *account
	d.accounts[account.ID] = &clone
	return nil
}

func (d *memoryDirectory) update(email string, apply func(*auth.Account)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, account := range d.accounts {
		if account.Email == email {
			apply(account)
			return nil
		}
	}
	return auth.ErrAccountNotFound
}

func (d *memoryDirectory) SetConfirmed(_ context.Context, email string) error {
	return d.update(email, func(a *auth.Account) { a.Confirmed = true })
}

func (d *memoryDirectory) SetPasswordHash(_ context.Context, email, hash string) error {
	return d.update(email, func(a *auth.Account) { a.PasswordHash = hash })
}

func (d *memoryDirectory) SetAvatar(_ context.Context, email, avatarURL string) error {
	return d.update(email, func(a *auth.Account) { a.Avatar = avatarURL })
}

func (d *memoryDirectory) SetRole(_ context.Context, email string, role sec.UserRole) error {
	return d.update(email, func(a *auth.Account) { a.Role = role })
}

func (d *memoryDirectory) remove(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, account := range d.accounts {
		if account.Username == username {
			delete(d.accounts, id)
		}
	}
}

// # Session Store

var errStoreDown = errors.New("session store unreachable")

type memorySessions struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	sets   int
	down   bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memorySessions) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.down {
		return "", errStoreDown
	}
	value, ok := s.values[key]
	if !ok {
		return "", auth.ErrCacheMiss
	}
	return value, nil
}

func (s *memorySessions) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.down {
		return errStoreDown
	}
	s.sets++
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memorySessions) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.down {
		return errStoreDown
	}
	delete(s.values, key)
	delete(s.ttls, key)
	return nil
}

func (s *memorySessions) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *memorySessions) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// # Mailer

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, message mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// # Fixture

type fixture struct {
	service   *auth.Service
	directory *memoryDirectory
	sessions  *memorySessions
	mailer    *recordingMailer
	hasher    *sec.PasswordHasher
	codec     *sec.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := sec.NewTokenCodec("test-secret", "HS256")
	require.NoError(t, err)

	f := &fixture{
		directory: newMemoryDirectory(),
		sessions:  newMemorySessions(),
		mailer:    &recordingMailer{},
		hasher:    sec.NewPasswordHasher(bcrypt.MinCost),
		codec:     codec,
	}
	f.service = auth.NewService(f.directory, f.sessions, f.hasher, f.codec, f.mailer, time.Hour, nil)
	return f
}

// seed stores an account with testPassword as its password.
func (f *fixture) seed(t *testing.T, username, email string, confirmed bool, role sec.UserRole) *auth.Account {
	t.Helper()

	hash, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)

	account := &auth.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Confirmed:    confirmed,
	}
	require.NoError(t, f.directory.Create(context.Background(), account))
	return account
}
