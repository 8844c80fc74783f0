package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("IPRateLimiter", func() {
	It("rejects requests beyond the burst with 429 and Retry-After", func() {
		h := NewIPRateLimiter(0.001, 2).Middleware(okHandler)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
			if rec.Code == http.StatusTooManyRequests {
				Expect(rec.Header().Get("Retry-After")).To(Equal("1"))
				Expect(decode(rec)["error"]).To(Equal("Too many requests"))
			}
		}
		Expect(codes).To(Equal([]int{200, 200, 429}))
	})

	It("keeps separate buckets per client", func() {
		h := NewIPRateLimiter(0.001, 1).Middleware(okHandler)
		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		}
	})

	It("ignores forwarded headers sent by the client", func() {
		limiter := NewIPRateLimiter(0.001, 1)
		h := limiter.Middleware(okHandler)

		blocked := 0
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "198.51.100.7:4000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code == http.StatusTooManyRequests {
				blocked++
			}
		}
		Expect(blocked).To(Equal(49))
		Expect(limiter.Clients()).To(Equal(1))
	})

	It("uses the proxy address once RealIP rewrote RemoteAddr", func() {
		h := chiMiddleware.RealIP(NewIPRateLimiter(0.001, 1).Middleware(okHandler))
		for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:80"
			req.Header.Set("X-Real-IP", ip)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		}
	})

	It("evicts buckets that have been idle", func() {
		limiter := NewIPRateLimiter(1, 1)
		clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return clock }

		for i := 0; i < 100; i++ {
			limiter.GetLimiter(fmt.Sprintf("203.0.113.%d", i))
		}
		Expect(limiter.Clients()).To(Equal(100))

		clock = clock.Add(defaultIdleTTL)
		limiter.GetLimiter("198.51.100.7")
		Expect(limiter.Clients()).To(Equal(1))
	})
})

var _ = Describe("CORS", func() {
	It("answers preflight for allowed origins", func() {
		h := CORS(DefaultCORSConfig([]string{"https://app.example"}))(okHandler)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/complaints", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example"))
		Expect(rec.Header().Get("Access-Control-Max-Age")).To(Equal("86400"))
	})

	It("omits the allow header for unknown origins", func() {
		h := CORS(DefaultCORSConfig([]string{"https://app.example"}))(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("RequireAction", func() {
	serve := func(p *identity.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/subadmin", nil)
		if p != nil {
			req = req.WithContext(internal.ContextWithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		RequireAction(policy.ActionSubadminCreate, testLogger)(okHandler).ServeHTTP(rec, req)
		return rec
	}

	It("returns 401 without a principal", func() {
		rec := serve(nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(decode(rec)["success"]).To(BeFalse())
	})

	It("returns 403 for the wrong role", func() {
		rec := serve(&identity.Principal{EmpID: 201, RoleID: identity.RoleUser, DeptID: 1})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decode(rec)["error"]).To(Equal("Access denied"))
	})

	It("passes superadmins through", func() {
		rec := serve(&identity.Principal{EmpID: 100, RoleID: identity.RoleSuperadmin, DeptID: 1})
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a 500 envelope", func() {
		h := RecoveryMiddleware(testLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(decode(rec)["error"]).To(Equal("Internal server error"))
	})
})

var _ = Describe("RequestID", func() {
	It("echoes an inbound trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "trace-123")
		rec := httptest.NewRecorder()
		RequestID(okHandler).ServeHTTP(rec, req)
		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-123"))
	})

	It("mints one when absent", func() {
		rec := httptest.NewRecorder()
		RequestID(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get("X-Trace-ID")).To(HaveLen(36))
	})
})

var _ = Describe("filterSensitiveBody", func() {
	It("masks credentials and push keys", func() {
		out := filterSensitiveBody([]byte(`{"email":"a@starkdigital.in","password":"secret","keys":{"p256dh":"x"}}`))
		Expect(out).To(ContainSubstring(`"email":"a@starkdigital.in"`))
		Expect(out).NotTo(ContainSubstring("secret"))
		Expect(out).To(ContainSubstring(`"keys":"[FILTERED]"`))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf bytes.Buffer
		lg  *slog.Logger
	)

	BeforeEach(func() {
		buf.Reset()
		lg = slog.New(slog.NewJSONHandler(&buf, nil))
	})

	It("logs one redacted line and leaves the body readable", func() {
		var seen string
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid credentials"}`))
		}))

		body := `{"email":"a@starkdigital.in","password":"hunter22"}`
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))

		Expect(seen).To(Equal(body))
		Expect(strings.Count(buf.String(), "\n")).To(Equal(1))

		var entry map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
		Expect(entry["level"]).To(Equal("WARN"))
		Expect(entry["status"]).To(BeNumerically("==", 401))
		Expect(entry["request"]).NotTo(ContainSubstring("hunter22"))
		Expect(entry["response"]).To(ContainSubstring("Invalid credentials"))
	})

	It("skips quiet paths", func() {
		LoggingMiddleware(lg)(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(buf.Len()).To(BeZero())
	})
})
