package middleware

import (
	"net/http"

	"coupon-service/pkg/logger"
	"coupon-service/pkg/utils"
)

// Recovery converts panics into 500 problem-detail responses instead of
// killing the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithContext(r.Context()).Error().
					Interface("error", err).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				utils.WriteProblem(w, http.StatusInternalServerError, utils.TypeInternal,
					"Internal Server Error", "An unexpected error occurred.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
