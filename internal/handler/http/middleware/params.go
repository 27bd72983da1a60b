package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timepay-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// RequireUUIDParam rejects the request with 422 unless the named route
// parameter is a UUID, so malformed ids never reach the database.
func RequireUUIDParam(name, field string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validator.IsValidUUID(chi.URLParam(r, name)) {
				response.HandleError(w, validator.ValidationErrors{{
					Field:   field,
					Message: field + " must be a valid UUID",
				}})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
