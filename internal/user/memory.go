package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, u *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	now := s.now()
	created := cloneUser(u)
	created.ID = uuid.New()
	created.Email = email
	created.CreatedAt = now
	created.UpdatedAt = now

	s.byID[created.ID] = *created
	s.byEmail[email] = created.ID

	return cloneUser(created), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.byID[id]
	return cloneUser(&u), nil
}

func (s *MemoryStore) SetOTP(_ context.Context, id uuid.UUID, otp PendingOTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	code := otp.Code
	expiry := otp.Expiry.UTC()
	u.OTP = &code
	u.OTPExpiry = &expiry
	if u.Name == "" {
		u.Name = strings.TrimSpace(otp.Name)
	}
	if u.DateOfBirth == nil && otp.DateOfBirth != nil {
		dob := *otp.DateOfBirth
		u.DateOfBirth = &dob
	}
	u.UpdatedAt = s.now()
	s.byID[id] = u

	return nil
}

func (s *MemoryStore) LinkGoogle(_ context.Context, id uuid.UUID, googleID, name string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	if u.GoogleID == "" {
		u.GoogleID = googleID
	}
	if u.Name == "" {
		u.Name = strings.TrimSpace(name)
	}
	u.UpdatedAt = s.now()
	s.byID[id] = u

	return cloneUser(&u), nil
}

func (s *MemoryStore) ConsumeOTP(_ context.Context, email, code string, now time.Time) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}

	u := s.byID[id]
	if u.OTP == nil || *u.OTP != code || !u.HasPendingOTP(now) {
		return nil, ErrNotFound
	}

	u.OTP = nil
	u.OTPExpiry = nil
	u.UpdatedAt = now.UTC()
	s.byID[id] = u

	return cloneUser(&u), nil
}

func (s *MemoryStore) ClearOTP(_ context.Context, id uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok || u.OTP == nil || *u.OTP != code {
		return nil
	}

	u.OTP = nil
	u.OTPExpiry = nil
	u.UpdatedAt = s.now()
	s.byID[id] = u

	return nil
}

// cloneUser copies u so callers never share pointer fields with the store.
func cloneUser(u *User) *User {
	c := *u
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		c.DateOfBirth = &dob
	}
	if u.OTP != nil {
		otp := *u.OTP
		c.OTP = &otp
	}
	if u.OTPExpiry != nil {
		exp := *u.OTPExpiry
		c.OTPExpiry = &exp
	}
	return &c
}
