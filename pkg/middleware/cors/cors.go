// Package cors wraps the HTTP handler with rs/cors using the configured origins.
package cors

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

var (
	allowedHeaders = []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"}
	allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	exposedHeaders = []string{"X-Request-ID", "Content-Disposition"}
)

// Options builds the rs/cors options. An empty origin list allows any origin.
func Options(allowedOrigins []string) cors.Options {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: origins[0] != "*",
		MaxAge:           600,
	}
}

// Wrap returns next behind a CORS handler.
func Wrap(next http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(Options(allowedOrigins)).Handler(next)
}
