package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/notes-api/internal/httputil"
	"github.com/redmonkez12/notes-api/internal/logging"
)

const invalidTokenMessage = "invalid or expired token"

// Principal is the authenticated caller of a protected endpoint.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

// AuthenticatedHandler serves a request on behalf of a verified Principal.
type AuthenticatedHandler func(w http.ResponseWriter, r *http.Request, p Principal)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// Authenticated verifies the bearer token and passes the resulting Principal
// to next. Missing, malformed, invalid and expired tokens all get the same 401.
func (m *Middleware) Authenticated(next AuthenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, invalidTokenMessage, httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httputil.RespondErrorWithCode(w, invalidTokenMessage, httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("session token rejected")
			httputil.RespondErrorWithCode(w, invalidTokenMessage, httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, invalidTokenMessage, httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		next(w, r, Principal{UserID: userID, Email: claims.Email})
	}
}
