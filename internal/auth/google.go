package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/redmonkez12/notes-api/internal/apperror"
	"github.com/redmonkez12/notes-api/internal/logging"
	"github.com/redmonkez12/notes-api/internal/user"
)

// Identity is the verified subject of an external identity token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier validates Google ID tokens against Google's public keys.
type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleVerifier(ctx context.Context, clientID string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}

	return &GoogleVerifier{clientID: clientID, validator: validator}, nil
}

// Verify checks signature, expiry and audience, then reads the profile claims.
func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if g.clientID == "" || rawToken == "" {
		return nil, ErrInvalidGoogleToken
	}

	payload, err := g.validator.Validate(ctx, rawToken, g.clientID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, ErrInvalidGoogleToken.Message, err)
	}

	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]any) (*Identity, error) {
	if claims == nil {
		return nil, ErrInvalidGoogleToken
	}

	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidGoogleToken
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, ErrInvalidGoogleToken
	}

	name, _ := claims["name"].(string)

	return &Identity{
		Subject: subject,
		Email:   user.NormalizeEmail(email),
		Name:    strings.TrimSpace(name),
	}, nil
}

// GoogleAuthService signs users in with a Google ID token.
type GoogleAuthService struct {
	users      user.Store
	tokens     TokenService
	verifier   IdentityVerifier
	sessionTTL time.Duration
}

func NewGoogleAuthService(users user.Store, tokens TokenService, verifier IdentityVerifier, sessionTTL time.Duration) *GoogleAuthService {
	return &GoogleAuthService{
		users:      users,
		tokens:     tokens,
		verifier:   verifier,
		sessionTTL: sessionTTL,
	}
}

// Authenticate verifies rawToken, finds or creates the matching user and
// opens a session. Existing users without a Google subject get it linked.
func (s *GoogleAuthService) Authenticate(ctx context.Context, rawToken string) (*AuthResult, error) {
	identity, err := s.verifier.Verify(ctx, strings.TrimSpace(rawToken))
	if err != nil {
		if apperror.KindOf(err) == apperror.KindAuthentication {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.KindAuthentication, ErrInvalidGoogleToken.Message, err)
	}

	logger := logging.GetLoggerFromContext(ctx).WithFields(map[string]any{"email": identity.Email})

	u, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if u.GoogleID == "" && identity.Subject != "" {
			u, err = s.users.LinkGoogle(ctx, u.ID, identity.Subject, identity.Name)
			if err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
			logger.Info("google account linked", "user_id", u.ID)
		}
	case errors.Is(err, user.ErrNotFound):
		u, err = s.users.Create(ctx, &user.User{
			Email:    identity.Email,
			Name:     identity.Name,
			GoogleID: identity.Subject,
		})
		if errors.Is(err, user.ErrDuplicateEmail) {
			u, err = s.users.GetByEmail(ctx, identity.Email)
		}
		if err != nil {
			return nil, fmt.Errorf("create google user: %w", err)
		}
		logger.Info("user created from google sign-in", "user_id", u.ID)
	default:
		return nil, fmt.Errorf("get user: %w", err)
	}

	return newSession(s.tokens, u, s.sessionTTL)
}
