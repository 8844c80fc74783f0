package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/complaint-management/internal/activitylog"
	activityPostgres "github.com/frahmantamala/complaint-management/internal/activitylog/postgres"
	"github.com/frahmantamala/complaint-management/internal/auth"
	authPostgres "github.com/frahmantamala/complaint-management/internal/auth/postgres"
	"github.com/frahmantamala/complaint-management/internal/complaint"
	complaintPostgres "github.com/frahmantamala/complaint-management/internal/complaint/postgres"
	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/internal/department"
	departmentPostgres "github.com/frahmantamala/complaint-management/internal/department/postgres"
	"github.com/frahmantamala/complaint-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/complaint-management/internal/notification/postgres"
	"github.com/frahmantamala/complaint-management/internal/push"
	pushPostgres "github.com/frahmantamala/complaint-management/internal/push/postgres"
	"github.com/frahmantamala/complaint-management/internal/role"
	rolePostgres "github.com/frahmantamala/complaint-management/internal/role/postgres"
	"github.com/frahmantamala/complaint-management/internal/task"
	taskPostgres "github.com/frahmantamala/complaint-management/internal/task/postgres"
	"github.com/frahmantamala/complaint-management/internal/testsupport"
	"github.com/frahmantamala/complaint-management/internal/transport"
	"github.com/frahmantamala/complaint-management/internal/transport/middleware"
	"github.com/frahmantamala/complaint-management/internal/user"
	userPostgres "github.com/frahmantamala/complaint-management/internal/user/postgres"
	"github.com/frahmantamala/complaint-management/pkg/backoff"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Suite")
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func buildRouter(db *gorm.DB, logger *slog.Logger) *chi.Mux {
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())

	base := transport.NewBaseHandler(logger)
	bus := events.NewEventBus(logger)

	activitySvc := activitylog.NewService(
		activityPostgres.NewActivityLogRepository(db),
		activityPostgres.NewAnalyticsRepository(sqlx.NewDb(sqlDB, "sqlite3")),
		logger,
	)
	departmentSvc := department.NewService(departmentPostgres.NewDepartmentRepository(db), activitySvc, logger)
	tokens := auth.NewJWTTokenGenerator("access-secret-access-secret-access", "refresh-secret-refresh-secret-xx", time.Minute, time.Hour)
	authSvc := auth.NewService(authPostgres.NewRepository(db), tokens, departmentSvc, activitySvc, logger,
		auth.Options{BCryptCost: 4, AllowedEmailDomain: "@starkdigital.in"})
	userSvc := user.NewService(userPostgres.NewUserRepository(db), authSvc, departmentSvc, activitySvc, logger, "@starkdigital.in")
	pushSvc := push.NewService(pushPostgres.NewSubscriptionRepository(db), nil, "", backoff.Default(), logger)

	router := chi.NewRouter()
	RegisterAllRoutes(router, Handlers{
		Auth:          auth.NewHandler(base, authSvc),
		Users:         user.NewHandler(base, userSvc),
		Departments:   department.NewHandler(base, departmentSvc),
		Roles:         role.NewHandler(base, role.NewService(rolePostgres.NewRoleRepository(db), activitySvc, logger)),
		Complaints:    complaint.NewHandler(base, complaint.NewService(complaintPostgres.NewComplaintRepository(db), departmentSvc, activitySvc, bus, logger)),
		Tasks:         task.NewHandler(base, task.NewService(taskPostgres.NewTaskRepository(db), activitySvc, bus, logger)),
		Notifications: notification.NewHandler(base, notification.NewService(notificationPostgres.NewNotificationRepository(db), 30*24*time.Hour, logger)),
		Push:          push.NewHandler(base, pushSvc),
		Activity:      activitylog.NewHandler(base, activitySvc),
	}, Options{
		Health: NewHealthHandler(map[string]Pinger{"postgres": sqlDB}),
		Logger: logger,
		Spec: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("openapi: 3.0.3\n"))
		}),
		CORS: middleware.DefaultCORSConfig([]string{"*"}),
	})
	return router
}

var _ = Describe("Router", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		Expect(testsupport.SeedRoles(db)).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 1, "IT")).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 2, "HR")).To(Succeed())
		Expect(testsupport.SeedUser(db, 100, "admin@starkdigital.in", 1, 1)).To(Succeed())
		Expect(testsupport.SeedUser(db, 150, "it.lead@starkdigital.in", 2, 1)).To(Succeed())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		router = buildRouter(db, logger)
	})

	do := func(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var decoded map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
		return rec, decoded
	}

	data := func(body map[string]interface{}) map[string]interface{} {
		d, ok := body["data"].(map[string]interface{})
		Expect(ok).To(BeTrue(), "response has no data object: %v", body)
		return d
	}

	login := func(email string) string {
		rec, body := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		return data(body)["access_token"].(string)
	}

	It("walks a complaint from registration to a subadmin response", func() {
		rec, body := do(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
			"emp_id": 201, "name": "Alice", "email": "alice@starkdigital.in", "password": "secret1", "dept_id": 1,
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		alice := data(body)["access_token"].(string)

		rec, body = do(http.MethodPost, "/api/v1/complaints", alice, map[string]interface{}{
			"title": "Printer jam", "description": "Printer on floor 2 jams daily", "dept_id": 1, "severity": "High",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		created := data(body)
		Expect(created["status"]).To(Equal("Pending"))
		id := int64(created["complaint_id"].(float64))
		path := "/api/v1/complaints/" + strconv.FormatInt(id, 10)

		rec, body = do(http.MethodPut, path, alice, map[string]string{"status": "Complete"})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(body["error"]).To(Equal("Access denied"))

		lead := login("it.lead@starkdigital.in")
		rec, _ = do(http.MethodPost, "/api/v1/subadmin/tasks", lead, map[string]interface{}{
			"complaint_id": id, "description": "Replacing the feed roller",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec, body = do(http.MethodGet, path, alice, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(data(body)["status"]).To(Equal("InProgress"))
	})

	It("requires a token on protected routes", func() {
		rec, body := do(http.MethodGet, "/api/v1/complaints", "", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(body["success"]).To(Equal(false))
	})

	It("keeps admin routes to the superadmin", func() {
		lead := login("it.lead@starkdigital.in")
		rec, _ := do(http.MethodGet, "/api/v1/admin/analytics", lead, nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		admin := login("admin@starkdigital.in")
		rec, _ = do(http.MethodGet, "/api/v1/admin/analytics", admin, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("lists departments without a token", func() {
		rec, body := do(http.MethodGet, "/api/v1/departments", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(body["data"]).To(HaveLen(2))
	})

	It("answers 503 for the push key when push is not configured", func() {
		rec, _ := do(http.MethodGet, "/api/v1/push/vapid-public-key", "", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("serves the api document and security headers", func() {
		rec, _ := do(http.MethodGet, "/openapi.yml", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("openapi:"))
		Expect(rec.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
	})

	It("reports database health", func() {
		rec, body := do(http.MethodGet, "/api/v1/health", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("healthy"))
	})
})

var _ = Describe("HealthHandler", func() {
	It("answers 503 when a dependency fails", func() {
		h := NewHealthHandler(map[string]Pinger{
			"postgres": pinger{},
			"smtp":     pinger{err: errors.New("connection refused")},
		})
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

		var resp HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal(HealthUnhealthy))
		Expect(resp.Components["postgres"].Status).To(Equal(HealthHealthy))
		Expect(resp.Components["smtp"].Message).To(Equal("connection refused"))
	})

	It("pings without touching dependencies", func() {
		h := NewHealthHandler(map[string]Pinger{"postgres": pinger{err: errors.New("down")}})
		rec := httptest.NewRecorder()
		h.Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
