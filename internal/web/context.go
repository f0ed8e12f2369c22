package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/scnpatch/internal/core"
	"github.com/JonMunkholm/scnpatch/internal/web/middleware"
)

// withClient adds the client IP and User-Agent to the request context for
// the parse history.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), middleware.ClientIP(r), r.Header.Get("User-Agent"))
}
