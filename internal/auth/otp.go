package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/redmonkez12/notes-api/internal/logging"
	"github.com/redmonkez12/notes-api/internal/user"
)

const (
	otpMin      = 100000
	otpMax      = 999999
	maxEmailLen = 254

	OTPSentMessage = "OTP sent to email"
)

// IssueRequest identifies who asks for a passcode. Name and DateOfBirth only
// fill fields that are still empty on an existing user.
type IssueRequest struct {
	Name        string
	DateOfBirth *time.Time
	Email       string
}

// OTPService issues and verifies email one-time passcodes.
type OTPService struct {
	users      user.Store
	tokens     TokenService
	mailer     Mailer
	otpTTL     time.Duration
	sessionTTL time.Duration
	now        func() time.Time
	generate   func() (string, error)
}

func NewOTPService(users user.Store, tokens TokenService, mailer Mailer, otpTTL, sessionTTL time.Duration) *OTPService {
	return &OTPService{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		otpTTL:     otpTTL,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		generate:   generateOTP,
	}
}

// Issue stores a fresh passcode for req.Email, replacing any pending one, and
// mails it. The user is created on first request.
func (s *OTPService) Issue(ctx context.Context, req IssueRequest) (string, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return "", err
	}

	logger := logging.GetLoggerFromContext(ctx).WithFields(map[string]any{"email": email})

	u, err := s.findOrCreate(ctx, email, req)
	if err != nil {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	err = s.users.SetOTP(ctx, u.ID, user.PendingOTP{
		Code:        code,
		Expiry:      s.now().Add(s.otpTTL),
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		logger.Error("otp email delivery failed", "error", err.Error())
		if clearErr := s.users.ClearOTP(ctx, u.ID, code); clearErr != nil {
			logger.Error("failed to roll back undelivered otp", "error", clearErr.Error())
		}
		return "", fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	logger.Info("otp issued", "user_id", u.ID)
	return OTPSentMessage, nil
}

// Resend re-issues a passcode under the same rules as Issue.
func (s *OTPService) Resend(ctx context.Context, req IssueRequest) (string, error) {
	return s.Issue(ctx, req)
}

// Verify redeems code for email and opens a session. Every failure returns
// ErrInvalidOTP.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*AuthResult, error) {
	email = user.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrInvalidOTP
	}

	u, err := s.users.ConsumeOTP(ctx, email, code, s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("consume otp: %w", err)
	}

	return newSession(s.tokens, u, s.sessionTTL)
}

func (s *OTPService) findOrCreate(ctx context.Context, email string, req IssueRequest) (*user.User, error) {
	name := strings.TrimSpace(req.Name)

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u, err = s.users.Create(ctx, &user.User{
		Email:       email,
		Name:        name,
		DateOfBirth: req.DateOfBirth,
	})
	if errors.Is(err, user.ErrDuplicateEmail) {
		// created concurrently by another request
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func validateEmail(raw string) (string, error) {
	email := user.NormalizeEmail(raw)
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(email) > maxEmailLen {
		return "", ErrInvalidEmailFormat
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmailFormat
	}

	return email, nil
}

// generateOTP draws a code uniformly from [otpMin, otpMax].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
