package auth

import (
	"fmt"
	"time"

	"github.com/redmonkez12/notes-api/internal/user"
)

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

func newSession(tokens TokenService, u *user.User, ttl time.Duration) (*AuthResult, error) {
	token, err := tokens.CreateToken(u.ID, u.Email, ttl)
	if err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}

	return &AuthResult{Token: token, User: u}, nil
}
