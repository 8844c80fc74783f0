package push_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/complaint-management/internal"
	pushDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/push"
	pushPostgres "github.com/frahmantamala/complaint-management/internal/push/postgres"
	"github.com/frahmantamala/complaint-management/internal/testsupport"
	"github.com/frahmantamala/complaint-management/internal/transport"
	"github.com/frahmantamala/complaint-management/pkg/backoff"
)

func TestPush(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Push Suite")
}

var (
	alice = identity.Principal{EmpID: 201, Email: "alice@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1}
	bob   = identity.Principal{EmpID: 202, Email: "bob@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1}
)

// scriptedSender answers per endpoint from a fixed list of results, repeating
// the last one.
type scriptedSender struct {
	mu      sync.Mutex
	script  map[string][]error
	calls   map[string]int
	payload []byte
}

func newScriptedSender() *scriptedSender {
	return &scriptedSender{script: map[string][]error{}, calls: map[string]int{}}
}

func (s *scriptedSender) Send(_ context.Context, sub *push.Subscription, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	n := s.calls[sub.Endpoint]
	s.calls[sub.Endpoint] = n + 1
	results := s.script[sub.Endpoint]
	if len(results) == 0 {
		return nil
	}
	if n >= len(results) {
		n = len(results) - 1
	}
	return results[n]
}

func (s *scriptedSender) callsTo(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

func subscribeDTO(endpoint string) push.SubscribeDTO {
	var dto push.SubscribeDTO
	dto.Endpoint = endpoint
	dto.Keys.P256dh = "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM"
	dto.Keys.Auth = "tBHItJI5svbpez7KI4CCXg"
	return dto
}

var _ = Describe("Push Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		sender  *scriptedSender
		service *push.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		Expect(testsupport.SeedRoles(db)).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 1, "IT")).To(Succeed())
		Expect(testsupport.SeedUser(db, 201, alice.Email, 3, 1)).To(Succeed())
		Expect(testsupport.SeedUser(db, 202, bob.Email, 3, 1)).To(Succeed())

		sender = newScriptedSender()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = push.NewService(pushPostgres.NewSubscriptionRepository(db), sender, "public-key",
			backoff.Policy{Attempts: 3, BaseDelay: time.Millisecond}, logger)
	})

	active := func(endpoint string) bool {
		var row pushDatamodel.Subscription
		Expect(db.First(&row, "endpoint = ?", endpoint).Error).To(Succeed())
		return row.IsActive
	}

	Describe("Subscribe", func() {
		It("moves a known endpoint to the new owner", func() {
			first, err := service.Subscribe(ctx, alice, subscribeDTO("https://push.example/a"))
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Unsubscribe(ctx, alice, push.UnsubscribeDTO{Endpoint: "https://push.example/a"})).To(Succeed())

			second, err := service.Subscribe(ctx, bob, subscribeDTO("https://push.example/a"))
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.EmpID).To(Equal(bob.EmpID))
			Expect(second.IsActive).To(BeTrue())

			var count int64
			Expect(db.Model(&pushDatamodel.Subscription{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("requires the keys", func() {
			_, err := service.Subscribe(ctx, alice, push.SubscribeDTO{Endpoint: "https://push.example/a"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Messages()).To(HaveLen(2))
		})
	})

	It("only lets owners unsubscribe", func() {
		_, err := service.Subscribe(ctx, alice, subscribeDTO("https://push.example/a"))
		Expect(err).NotTo(HaveOccurred())

		err = service.Unsubscribe(ctx, bob, push.UnsubscribeDTO{Endpoint: "https://push.example/a"})
		Expect(err).To(MatchError(internal.ErrSubscriptionNotFound))
		Expect(active("https://push.example/a")).To(BeTrue())
	})

	Describe("Notify", func() {
		BeforeEach(func() {
			for _, endpoint := range []string{"https://push.example/ok", "https://push.example/gone", "https://push.example/flaky"} {
				_, err := service.Subscribe(ctx, alice, subscribeDTO(endpoint))
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("delivers to each subscription independently", func() {
			sender.script["https://push.example/gone"] = []error{backoff.Permanent(push.ErrGone)}
			sender.script["https://push.example/flaky"] = []error{errors.New("503"), nil}

			Expect(service.Notify(ctx, alice.EmpID, "Complaint status updated", "Printer is now Complete", "")).To(Succeed())

			Expect(sender.callsTo("https://push.example/ok")).To(Equal(1))
			Expect(sender.callsTo("https://push.example/gone")).To(Equal(1))
			Expect(sender.callsTo("https://push.example/flaky")).To(Equal(2))
			Expect(active("https://push.example/gone")).To(BeFalse())
			Expect(active("https://push.example/ok")).To(BeTrue())

			var p push.Payload
			Expect(json.Unmarshal(sender.payload, &p)).To(Succeed())
			Expect(p.Title).To(Equal("Complaint status updated"))
		})

		It("reports subscriptions that keep failing", func() {
			sender.script["https://push.example/flaky"] = []error{errors.New("503")}

			err := service.Notify(ctx, alice.EmpID, "t", "b", "")
			Expect(err).To(HaveOccurred())
			Expect(sender.callsTo("https://push.example/flaky")).To(Equal(3))
			Expect(active("https://push.example/flaky")).To(BeTrue())
		})

		It("skips inactive subscriptions", func() {
			Expect(service.Unsubscribe(ctx, alice, push.UnsubscribeDTO{Endpoint: "https://push.example/ok"})).To(Succeed())
			Expect(service.Notify(ctx, alice.EmpID, "t", "b", "")).To(Succeed())
			Expect(sender.callsTo("https://push.example/ok")).To(BeZero())
		})
	})
})

var _ = Describe("WebPushSender", func() {
	var (
		status int
		server *httptest.Server
		sender *push.WebPushSender
		sub    *push.Subscription
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		DeferCleanup(server.Close)

		publicKey, privateKey, err := push.GenerateVAPIDKeys()
		Expect(err).NotTo(HaveOccurred())
		sender = push.NewWebPushSender(push.VAPIDConfig{
			PublicKey: publicKey, PrivateKey: privateKey, Subject: "mailto:ops@starkdigital.in", TTL: time.Hour,
		}, server.Client())

		dto := subscribeDTO(server.URL + "/sub")
		sub = &push.Subscription{Endpoint: dto.Endpoint, P256dh: dto.Keys.P256dh, Auth: dto.Keys.Auth}
	})

	It("accepts 201", func() {
		status = http.StatusCreated
		Expect(sender.Send(context.Background(), sub, []byte(`{"title":"t"}`))).To(Succeed())
	})

	It("treats 410 as a permanently gone subscription", func() {
		status = http.StatusGone
		err := sender.Send(context.Background(), sub, []byte(`{"title":"t"}`))
		Expect(errors.Is(err, push.ErrGone)).To(BeTrue())
		Expect(backoff.IsPermanent(err)).To(BeTrue())
	})

	It("retries server errors", func() {
		status = http.StatusBadGateway
		err := sender.Send(context.Background(), sub, []byte(`{"title":"t"}`))
		Expect(err).To(HaveOccurred())
		Expect(backoff.IsPermanent(err)).To(BeFalse())
	})
})

var _ = Describe("Push Handler", func() {
	It("answers 503 without VAPID keys", func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		h := push.NewHandler(transport.NewBaseHandler(logger), push.NewService(nil, nil, "", backoff.Default(), logger))
		rec := httptest.NewRecorder()
		h.VAPIDPublicKey(rec, httptest.NewRequest(http.MethodGet, "/push/vapid-public-key", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})
})
