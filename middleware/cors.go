package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig controls cross-origin access. An empty AllowedOrigins allows every origin.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows the browser client to send the credential headers and read the token
// headers of responses.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Origin",
			"X-Requested-With",
			"Content-Type",
			"Accept",
			HeaderAccessToken,
			HeaderRefreshToken,
			HeaderUserID,
		},
		ExposedHeaders: []string{HeaderAccessToken, HeaderRefreshToken},
		MaxAge:         cfg.MaxAge,
	})
}
