package http

const (
	CodeUnknown             = "UNKNOWN"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	CodeNotFound            = "NOT_FOUND"
	CodeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
)
