package backoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/complaint-management/pkg/backoff"
)

func TestBackoff(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backoff Suite")
}

var _ = Describe("Policy.Do", func() {
	policy := backoff.Policy{Attempts: 3, BaseDelay: time.Millisecond}

	It("stops after the configured number of attempts", func() {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("smtp unavailable")
		})
		Expect(err).To(MatchError("smtp unavailable"))
		Expect(calls).To(Equal(3))
	})

	It("returns as soon as an attempt succeeds", func() {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("flaky")
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(2))
	})

	It("does not retry permanent failures", func() {
		gone := errors.New("410 gone")
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return backoff.Permanent(gone)
		})
		Expect(calls).To(Equal(1))
		Expect(backoff.IsPermanent(err)).To(BeTrue())
		Expect(errors.Is(err, gone)).To(BeTrue())
	})

	It("defaults to three attempts starting at one second", func() {
		Expect(backoff.Default()).To(Equal(backoff.Policy{Attempts: 3, BaseDelay: time.Second}))
	})
})
