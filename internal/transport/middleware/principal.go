package middleware

import (
	"net/http"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/pkg/logger"
)

// PrincipalLogger tags the request logger with the authenticated caller.
// Mount it after authentication.
func PrincipalLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := logger.With(r.Context(), "emp_id", p.EmpID, "role", p.RoleID.String(), "dept_id", p.DeptID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
