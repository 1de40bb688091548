package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequestBody  = "invalid_request_body"
	CodeValidationFailed    = "validation_failed"
	CodeInvalidOTP          = "invalid_otp"
	CodeInvalidGoogleToken  = "invalid_google_token"
	CodeEmailDeliveryFailed = "email_delivery_failed"
	CodeMissingAuth         = "missing_authentication"
	CodeInvalidAuthHeader   = "invalid_authorization_header"
	CodeInvalidToken        = "invalid_token"
	CodeNoteNotFound        = "note_not_found"
	CodeRouteNotFound       = "route_not_found"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeInternalError       = "internal_error"
)
