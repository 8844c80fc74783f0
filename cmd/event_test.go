package cmd

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/complaint-management/internal/core/events"
)

var _ = Describe("buildEvent", func() {
	flags := eventFlags{ComplaintID: 7, TaskID: 3, AuthorID: 201, ActorID: 150, DeptID: 1, Title: "Printer jam", Status: "Complete", Data: "On it"}

	It("builds typed complaint events", func() {
		e, ok := buildEvent(events.EventTypeComplaintCreated, flags).(*events.ComplaintCreatedEvent)
		Expect(ok).To(BeTrue())
		Expect(e.DeptID).To(Equal(int64(1)))
		Expect(e.AuthorID).To(Equal(int64(201)))

		s, ok := buildEvent(events.EventTypeComplaintStatusChanged, flags).(*events.ComplaintStatusChangedEvent)
		Expect(ok).To(BeTrue())
		Expect(s.ToStatus).To(Equal("Complete"))
		Expect(s.ChangedBy).To(Equal(int64(150)))
	})

	It("builds task events", func() {
		t, ok := buildEvent(events.EventTypeTaskAssigned, flags).(*events.TaskAssignedEvent)
		Expect(ok).To(BeTrue())
		Expect(t.TaskID).To(Equal(int64(3)))
		Expect(t.SubadminID).To(Equal(int64(150)))
		Expect(t.Description).To(Equal("On it"))
	})

	It("falls back to a bare event", func() {
		e := buildEvent("debug.ping", flags)
		Expect(e.EventType()).To(Equal("debug.ping"))
		Expect(e.Payload()).To(HaveKeyWithValue("message", "On it"))
	})
})

var _ = Describe("vapid", func() {
	It("prints both keys", func() {
		var out bytes.Buffer
		vapidCmd.SetOut(&out)
		vapidCmd.Run(vapidCmd, nil)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(HavePrefix("VAPID_PUBLIC_KEY="))
		Expect(lines[1]).To(HavePrefix("VAPID_PRIVATE_KEY="))
	})
})

var _ = Describe("migrationCommand", func() {
	It("maps flags onto goose verbs", func() {
		Expect(migrationCommand(false, false)).To(Equal("up"))
		Expect(migrationCommand(true, false)).To(Equal("down"))
		Expect(migrationCommand(true, true)).To(Equal("status"))
	})
})

var _ = Describe("loadConfig", func() {
	It("names the directory it could not read", func() {
		_, err := loadConfig(GinkgoT().TempDir())
		Expect(err).To(MatchError(ContainSubstring("config.yml")))
	})
})
