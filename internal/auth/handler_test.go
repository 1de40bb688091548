package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/notes-api/internal/httputil"
)

func newTestHandler(t *testing.T) (*Handler, *otpFixture) {
	t.Helper()
	f := newOTPFixture(t)
	google, _ := newGoogleFixture(t, &fakeVerifier{err: errors.New("bad signature")})
	return NewHandler(f.svc, google), f
}

func doJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_SignupAndVerify(t *testing.T) {
	h, f := newTestHandler(t)
	f.sequence("424242")

	rec := doJSON(t, h.Signup, `{"name":"Ada","dob":"1990-04-01","email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"OTP sent to email"}`, rec.Body.String())

	rec = doJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Invalid or expired OTP", body.Message)
	assert.Equal(t, httputil.CodeInvalidOTP, body.Code)

	rec = doJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"424242"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ada@example.com", result.User["email"])
	assert.Equal(t, "Ada", result.User["name"])
	assert.NotEmpty(t, result.User["_id"])
	assert.Contains(t, result.User["dob"], "1990-04-01")
	assert.NotContains(t, result.User, "otp")
	assert.NotContains(t, result.User, "otpExpiry")
}

func TestHandler_SignupValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"email":`, code: httputil.CodeInvalidRequestBody},
		{name: "empty body", body: ``, code: httputil.CodeInvalidRequestBody},
		{name: "missing email", body: `{"name":"Ada"}`, code: httputil.CodeValidationFailed},
		{name: "bad email", body: `{"email":"nope"}`, code: httputil.CodeValidationFailed},
		{name: "bad dob", body: `{"email":"a@x.com","dob":"01/04/1990"}`, code: httputil.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h.Signup, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandler_ResendMailFailure(t *testing.T) {
	h, f := newTestHandler(t)
	f.mailer.err = errors.New("smtp down")

	rec := doJSON(t, h.ResendOTP, `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, httputil.CodeEmailDeliveryFailed, decodeError(t, rec).Code)
}

func TestHandler_GoogleInvalidToken(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h.Google, `{"token":"forged"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Invalid Google token", body.Message)
	assert.Equal(t, httputil.CodeInvalidGoogleToken, body.Code)
}

func TestParseDateOfBirth(t *testing.T) {
	dob, err := parseDateOfBirth("")
	require.NoError(t, err)
	assert.Nil(t, dob)

	dob, err = parseDateOfBirth("1990-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), *dob)

	dob, err = parseDateOfBirth("1990-04-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), *dob)

	_, err = parseDateOfBirth("April 1st")
	assert.Error(t, err)
}
