package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/handler/http/response"
)

// RequireEmployee guards self-service routes: the caller's account has to be
// linked to an employee record.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.EmployeeID == nil || *actor.EmployeeID == "" {
			response.HandleError(w, user.ErrEmployeeIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
