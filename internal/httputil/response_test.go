package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithCode_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondErrorWithCode(rec, "Note not found", CodeNoteNotFound, http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"status":  "error",
		"message": "Note not found",
		"code":    CodeNoteNotFound,
	}, body)
}

func TestRespondErrorWithCode_OmitsEmptyCode(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondErrorWithCode(rec, "internal server error", "", http.StatusInternalServerError)

	assert.JSONEq(t, `{"status":"error","message":"internal server error"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@x.com"}`))
	require.NoError(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, "a@x.com", dst.Email)

	req = httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(""))
	assert.EqualError(t, DecodeJSON(rec, req, &dst), "request body is empty")

	req = httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{"))
	assert.Error(t, DecodeJSON(rec, req, &dst))
}
