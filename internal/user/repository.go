package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/notes-api/internal/database"
)

// Repository handles user data persistence in Postgres
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	dbUser := mapModelToDBUser(u)
	dbUser.ID = uuid.New()
	dbUser.Email = NormalizeEmail(u.Email)
	dbUser.CreatedAt = now
	dbUser.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", NormalizeEmail(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetOTP stores a new pending OTP without touching the federated columns
func (r *Repository) SetOTP(ctx context.Context, id uuid.UUID, otp PendingOTP) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("otp = ?", otp.Code).
		Set("otp_expiry = ?", otp.Expiry.UTC()).
		Set("name = COALESCE(NULLIF(name, ''), ?)", nullableString(strings.TrimSpace(otp.Name))).
		Set("date_of_birth = COALESCE(date_of_birth, ?)", otp.DateOfBirth).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// LinkGoogle sets google_id when it is still empty, leaving OTP state alone
func (r *Repository) LinkGoogle(ctx context.Context, id uuid.UUID, googleID, name string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewUpdate().
		Model(dbUser).
		Set("google_id = COALESCE(google_id, ?)", nullableString(googleID)).
		Set("name = COALESCE(NULLIF(name, ''), ?)", nullableString(strings.TrimSpace(name))).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to link google account: %w", err)
	}

	if dbUser.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// ConsumeOTP clears a matching, unexpired OTP in a single conditional update
func (r *Repository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewUpdate().
		Model(dbUser).
		Set("otp = NULL").
		Set("otp_expiry = NULL").
		Set("updated_at = ?", now.UTC()).
		Where("email = ?", NormalizeEmail(email)).
		Where("otp = ?", code).
		Where("otp_expiry > ?", now.UTC()).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}

	if dbUser.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// ClearOTP removes the pending OTP if it has not been replaced since
func (r *Repository) ClearOTP(ctx context.Context, id uuid.UUID, code string) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("otp = NULL").
		Set("otp_expiry = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("otp = ?", code).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear otp: %w", err)
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	u := &User{
		ID:          dbu.ID,
		Email:       dbu.Email,
		DateOfBirth: dbu.DateOfBirth,
		OTP:         dbu.OTP,
		OTPExpiry:   dbu.OTPExpiry,
		CreatedAt:   dbu.CreatedAt,
		UpdatedAt:   dbu.UpdatedAt,
	}
	if dbu.Name != nil {
		u.Name = *dbu.Name
	}
	if dbu.GoogleID != nil {
		u.GoogleID = *dbu.GoogleID
	}
	return u
}

func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        nullableString(u.Name),
		DateOfBirth: u.DateOfBirth,
		OTP:         u.OTP,
		OTPExpiry:   u.OTPExpiry,
		GoogleID:    nullableString(u.GoogleID),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
