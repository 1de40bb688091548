package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/redmonkez12/notes-api/internal/apperror"
	"github.com/redmonkez12/notes-api/internal/httputil"
	"github.com/redmonkez12/notes-api/internal/logging"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	otp    *OTPService
	google *GoogleAuthService
}

func NewHandler(otp *OTPService, google *GoogleAuthService) *Handler {
	return &Handler{otp: otp, google: google}
}

// SignupRequest represents the OTP request body
type SignupRequest struct {
	Name  string `json:"name"`
	DOB   string `json:"dob"`
	Email string `json:"email"`
}

// VerifyOTPRequest represents the OTP verification body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// GoogleRequest carries a Google ID token
type GoogleRequest struct {
	Token string `json:"token"`
}

// Signup handles OTP issuance
// @Summary      Request a sign-in code
// @Description  Create the user if needed and email a 6-digit one-time passcode valid for 10 minutes.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Identity"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      500 {object} httputil.ErrorResponse "Email delivery failed"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, "signup")
}

// ResendOTP handles OTP re-issuance
// @Summary      Resend a sign-in code
// @Description  Replace any pending passcode with a new one and email it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Identity (only email is required)"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      500 {object} httputil.ErrorResponse "Email delivery failed"
// @Router       /auth/resend-otp [post]
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, "resend")
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, action string) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid otp request body", "action", action, "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	dob, err := parseDateOfBirth(req.DOB)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	issueReq := IssueRequest{Name: req.Name, DateOfBirth: dob, Email: req.Email}

	var message string
	if action == "resend" {
		message, err = h.otp.Resend(r.Context(), issueReq)
	} else {
		message, err = h.otp.Issue(r.Context(), issueReq)
	}
	if err != nil {
		h.respondAuthError(w, r, err, httputil.CodeInvalidOTP)
		return
	}

	httputil.RespondMessage(w, message, http.StatusOK)
}

// VerifyOTP handles passcode redemption
// @Summary      Verify a sign-in code
// @Description  Redeem a pending passcode and receive a session token valid for 7 days.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Email and code"
// @Success      200 {object} AuthResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired OTP"
// @Router       /auth/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid verify request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.otp.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.respondAuthError(w, r, err, httputil.CodeInvalidOTP)
		return
	}

	logger.Info("otp verified", "user_id", result.User.ID)
	httputil.RespondJSON(w, result, http.StatusOK)
}

// Google handles Google sign-in
// @Summary      Sign in with Google
// @Description  Exchange a Google ID token for a session token, creating the user on first sign-in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body GoogleRequest true "Google ID token"
// @Success      200 {object} AuthResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid Google token"
// @Router       /auth/google [post]
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req GoogleRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid google request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.google.Authenticate(r.Context(), req.Token)
	if err != nil {
		h.respondAuthError(w, r, err, httputil.CodeInvalidGoogleToken)
		return
	}

	httputil.RespondJSON(w, result, http.StatusOK)
}

// respondAuthError maps service errors onto the auth endpoint contract:
// every failure except mail delivery is a 400.
func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, err error, authCode string) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		logger.Warn("auth request rejected", "error", err.Error())
		httputil.RespondErrorWithCode(w, apperror.MessageOf(err, "invalid request"), httputil.CodeValidationFailed, http.StatusBadRequest)
	case apperror.KindAuthentication:
		logger.Warn("authentication failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, apperror.MessageOf(err, "authentication failed"), authCode, http.StatusBadRequest)
	case apperror.KindTransport:
		httputil.RespondErrorWithCode(w, apperror.MessageOf(err, "failed to send OTP email"), httputil.CodeEmailDeliveryFailed, http.StatusInternalServerError)
	default:
		logger.Error("auth request failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "request could not be completed", httputil.CodeInternalError, http.StatusBadRequest)
	}
}

func parseDateOfBirth(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day, nil
		}
	}

	return nil, apperror.New(apperror.KindValidation, "dob must be a date in YYYY-MM-DD format")
}
