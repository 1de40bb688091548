package auth

import (
	"errors"

	"github.com/redmonkez12/notes-api/internal/apperror"
)

// ErrInvalidToken is returned by every TokenService for any verification failure.
var ErrInvalidToken = errors.New("invalid token")

var (
	ErrInvalidOTP         = apperror.New(apperror.KindAuthentication, "Invalid or expired OTP")
	ErrInvalidGoogleToken = apperror.New(apperror.KindAuthentication, "Invalid Google token")
	ErrEmailRequired      = apperror.New(apperror.KindValidation, "email is required")
	ErrInvalidEmailFormat = apperror.New(apperror.KindValidation, "invalid email format")
	ErrEmailDelivery      = apperror.New(apperror.KindTransport, "failed to send OTP email")
)
