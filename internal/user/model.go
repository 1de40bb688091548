package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a credential record. OTP state is never serialised.
type User struct {
	ID          uuid.UUID  `json:"_id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	DateOfBirth *time.Time `json:"dob,omitempty"`
	OTP         *string    `json:"-"`
	OTPExpiry   *time.Time `json:"-"`
	GoogleID    string     `json:"googleId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasPendingOTP reports whether a code is stored and still valid at now.
func (u *User) HasPendingOTP(now time.Time) bool {
	return u.OTP != nil && u.OTPExpiry != nil && now.Before(*u.OTPExpiry)
}

// NormalizeEmail is the canonical lookup form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
