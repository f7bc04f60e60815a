package http

import (
	"net/http"

	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	"github.com/AlibekovAA/social-stream/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
)

// BuildBaseHandler wraps handler in the middleware every service shares.
// Outermost first: security headers, trace id, panic recovery, body limit,
// request metrics.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(collector.Wrap(handler)))))
}
