package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// AddCorsPolicy lets the given origins call the API with credentials. With no
// origins configured any origin is accepted, and credentials are not.
func AddCorsPolicy(handler http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowCredentials: len(allowedOrigins) > 0 && !containsWildcard(allowedOrigins),
		Debug:            false,
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
	})

	return c.Handler(handler)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
