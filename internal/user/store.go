package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// PendingOTP is a freshly issued passcode together with the profile fields
// supplied in the same request.
type PendingOTP struct {
	Code        string
	Expiry      time.Time
	Name        string
	DateOfBirth *time.Time
}

// Store persists users. Every method is a single-row operation and writes
// only the columns it names.
type Store interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetOTP replaces the pending OTP of user id and fills name and date of
	// birth only where they are still empty.
	SetOTP(ctx context.Context, id uuid.UUID, otp PendingOTP) error

	// LinkGoogle records googleID unless one is already linked and fills an
	// empty name, returning the updated user.
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID, name string) (*User, error)

	// ConsumeOTP clears the pending OTP of the user with email if it equals
	// code and expires after now, returning the updated user. Otherwise it
	// returns ErrNotFound and changes nothing.
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*User, error)

	// ClearOTP clears the pending OTP only while it still equals code.
	ClearOTP(ctx context.Context, id uuid.UUID, code string) error
}
