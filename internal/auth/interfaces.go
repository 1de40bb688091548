package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService defines the interface for session token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Mailer delivers one-time passcodes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// IdentityVerifier checks an externally issued identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}
