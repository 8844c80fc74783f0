package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/complaint-management/internal/activitylog"
	"github.com/frahmantamala/complaint-management/internal/auth"
	"github.com/frahmantamala/complaint-management/internal/complaint"
	"github.com/frahmantamala/complaint-management/internal/department"
	"github.com/frahmantamala/complaint-management/internal/notification"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"github.com/frahmantamala/complaint-management/internal/push"
	"github.com/frahmantamala/complaint-management/internal/role"
	"github.com/frahmantamala/complaint-management/internal/task"
	"github.com/frahmantamala/complaint-management/internal/transport/middleware"
	"github.com/frahmantamala/complaint-management/internal/transport/swagger"
	"github.com/frahmantamala/complaint-management/internal/user"
	"github.com/frahmantamala/complaint-management/pkg/metrics"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth          *auth.Handler
	Users         *user.Handler
	Departments   *department.Handler
	Roles         *role.Handler
	Complaints    *complaint.Handler
	Tasks         *task.Handler
	Notifications *notification.Handler
	Push          *push.Handler
	Activity      *activitylog.Handler
}

type Options struct {
	Health         *HealthHandler
	Logger         *slog.Logger
	Spec           http.Handler
	AuthLimiter    *middleware.IPRateLimiter
	TrustProxy     bool
	CORS           middleware.CORSConfig
	BodyLimit      int64
	MetricsEnabled bool
	MetricsPath    string
}

const defaultBodyLimit = 1 << 20

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	if opts.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS(opts.CORS))
	router.Use(middleware.BodyLimit(opts.BodyLimit))
	if opts.MetricsEnabled {
		router.Use(metrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(logger))

	if opts.MetricsEnabled {
		router.Handle(opts.MetricsPath, metrics.Handler())
	}

	if opts.Spec != nil {
		router.Handle("/openapi.yml", opts.Spec)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	can := func(action policy.Action) func(http.Handler) http.Handler {
		return middleware.RequireAction(action, logger)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Health != nil {
			r.Get("/health", opts.Health.Health)
			r.Get("/ping", opts.Health.Ping)
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Group(func(lr chi.Router) {
				if opts.AuthLimiter != nil {
					lr.Use(opts.AuthLimiter.Middleware)
				}
				lr.Post("/register", h.Auth.Register)
				lr.Post("/login", h.Auth.Login)
				lr.Post("/refresh", h.Auth.RefreshToken)
			})

			ar.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware, middleware.PrincipalLogger, can(policy.ActionProfile))
				pr.Post("/logout", h.Auth.Logout)
				pr.Get("/profile", h.Auth.GetProfile)
				pr.Put("/profile", h.Auth.UpdateProfile)
			})
		})

		// Registration needs the department list before anyone has a token.
		r.Get("/departments", h.Departments.ListDepartments)
		r.Get("/departments/{id}", h.Departments.GetDepartment)
		r.Get("/push/vapid-public-key", h.Push.VAPIDPublicKey)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.PrincipalLogger)

			pr.Route("/complaints", func(cr chi.Router) {
				cr.With(can(policy.ActionComplaintCreate)).Post("/", h.Complaints.CreateComplaint)
				cr.With(can(policy.ActionComplaintList)).Get("/", h.Complaints.ListComplaints)
				cr.With(can(policy.ActionComplaintView)).Get("/{id}", h.Complaints.GetComplaint)
				cr.With(can(policy.ActionComplaintUpdateStatus)).Put("/{id}", h.Complaints.UpdateComplaintStatus)
			})

			pr.Route("/subadmin", func(sr chi.Router) {
				sr.With(can(policy.ActionDepartmentComplaints)).Get("/complaints", h.Complaints.ListDepartmentComplaints)
				sr.With(can(policy.ActionTaskCreate)).Post("/tasks", h.Tasks.CreateTask)
				sr.With(can(policy.ActionTaskList)).Get("/tasks", h.Tasks.ListTasks)
				sr.With(can(policy.ActionTaskUpdate)).Put("/tasks/{id}", h.Tasks.UpdateTask)
				sr.With(can(policy.ActionTaskComplete)).Put("/tasks/{id}/complete", h.Tasks.CompleteTask)
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.With(can(policy.ActionSubadminCreate)).Post("/subadmin", h.Users.CreateSubadmin)
				ar.Group(func(ur chi.Router) {
					ur.Use(can(policy.ActionUserManage))
					ur.Get("/users", h.Users.ListUsers)
					ur.Get("/users/{id}", h.Users.GetUser)
					ur.Put("/users/{id}", h.Users.UpdateUser)
					ur.Delete("/users/{id}", h.Users.DeleteUser)
				})
				ar.With(can(policy.ActionLogView)).Get("/logs", h.Activity.ListLogs)
				ar.With(can(policy.ActionAnalyticsView)).Get("/analytics", h.Activity.GetAnalytics)
			})

			pr.Group(func(dr chi.Router) {
				dr.Use(can(policy.ActionDepartmentManage))
				dr.Post("/departments", h.Departments.CreateDepartment)
				dr.Put("/departments/{id}", h.Departments.UpdateDepartment)
				dr.Delete("/departments/{id}", h.Departments.DeleteDepartment)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Use(can(policy.ActionRoleManage))
				rr.Get("/", h.Roles.ListRoles)
				rr.Post("/", h.Roles.CreateRole)
				rr.Put("/{id}", h.Roles.UpdateRole)
				rr.Delete("/{id}", h.Roles.DeleteRole)
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Use(can(policy.ActionNotification))
				nr.Get("/", h.Notifications.ListNotifications)
				nr.Get("/unread-count", h.Notifications.UnreadCount)
				nr.Post("/read-all", h.Notifications.MarkAllRead)
				nr.Post("/{id}/read", h.Notifications.MarkRead)
			})

			pr.Route("/push", func(ur chi.Router) {
				ur.Use(can(policy.ActionPush))
				ur.Post("/subscribe", h.Push.Subscribe)
				ur.Post("/unsubscribe", h.Push.Unsubscribe)
			})
		})
	})
}
