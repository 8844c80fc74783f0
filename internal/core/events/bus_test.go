package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/complaint-management/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("delivers to every subscriber asynchronously", func() {
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			bus.Subscribe(events.EventTypeComplaintCreated, func(ctx context.Context, e events.Event) error {
				calls.Add(1)
				return nil
			})
		}

		Expect(bus.Publish(context.Background(), events.NewComplaintCreatedEvent(1, 300, 1, "Printer", "High"))).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("keeps handlers running after the publisher's context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		seen := make(chan error, 1)
		bus.Subscribe(events.EventTypeTaskAssigned, func(hctx context.Context, e events.Event) error {
			time.Sleep(10 * time.Millisecond)
			seen <- hctx.Err()
			return nil
		})

		Expect(bus.Publish(ctx, events.NewTaskAssignedEvent(1, 2, 300, 200, "Printer", "Replacing toner"))).To(Succeed())
		cancel()
		Eventually(seen).Should(Receive(BeNil()))
	})

	It("absorbs handler errors and panics", func() {
		var after atomic.Bool
		bus.Subscribe(events.EventTypeComplaintStatusChanged, func(ctx context.Context, e events.Event) error {
			return errors.New("smtp down")
		})
		bus.Subscribe(events.EventTypeComplaintStatusChanged, func(ctx context.Context, e events.Event) error {
			panic("boom")
		})
		bus.Subscribe(events.EventTypeComplaintStatusChanged, func(ctx context.Context, e events.Event) error {
			after.Store(true)
			return nil
		})

		err := bus.Publish(context.Background(), events.NewComplaintStatusChangedEvent(1, 300, "Printer", "Pending", "InProgress", 200))
		Expect(err).NotTo(HaveOccurred())
		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(after.Load()).To(BeTrue())
	})

	It("surfaces the first failure when publishing synchronously", func() {
		bus.Subscribe(events.EventTypeComplaintCreated, func(ctx context.Context, e events.Event) error {
			return errors.New("nope")
		})
		err := bus.PublishSync(context.Background(), events.NewComplaintCreatedEvent(1, 300, 1, "Printer", "High"))
		Expect(err).To(MatchError(ContainSubstring("complaint.created")))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewComplaintCreatedEvent(1, 300, 1, "Printer", "High"))).To(Succeed())
	})

	It("carries typed payloads", func() {
		e := events.NewComplaintStatusChangedEvent(7, 300, "Printer", "InProgress", "Complete", 200)
		Expect(e.EventType()).To(Equal(events.EventTypeComplaintStatusChanged))
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("to_status", "Complete"))
	})
})
