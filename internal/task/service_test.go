package task_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/task"
	taskPostgres "github.com/frahmantamala/complaint-management/internal/task/postgres"
	"github.com/frahmantamala/complaint-management/internal/testsupport"
	"github.com/frahmantamala/complaint-management/internal/transport"
)

func TestTask(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Suite")
}

type noopActivity struct{}

func (noopActivity) Record(context.Context, int64, string, string, string) {}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var (
	superadmin = identity.Principal{EmpID: 100, Email: "root@starkdigital.in", RoleID: identity.RoleSuperadmin, DeptID: 1}
	itSub      = identity.Principal{EmpID: 150, Email: "sam@starkdigital.in", RoleID: identity.RoleSubadmin, DeptID: 1}
	hrSub      = identity.Principal{EmpID: 250, Email: "hana@starkdigital.in", RoleID: identity.RoleSubadmin, DeptID: 2}
	alice      = identity.Principal{EmpID: 201, Email: "alice@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1}
)

func complaintStatus(db *gorm.DB, id int64) (string, *int64) {
	var c complaintDatamodel.Complaint
	Expect(db.First(&c, "complaint_id = ?", id).Error).To(Succeed())
	return c.Status, c.StatusBy
}

var _ = Describe("Task Service", func() {
	var (
		ctx         context.Context
		db          *gorm.DB
		service     *task.Service
		pub         *recordingPublisher
		complaintID int64
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		Expect(testsupport.SeedRoles(db)).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 1, "IT")).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 2, "HR")).To(Succeed())
		Expect(testsupport.SeedUser(db, 100, superadmin.Email, 1, 1)).To(Succeed())
		Expect(testsupport.SeedUser(db, 150, itSub.Email, 2, 1)).To(Succeed())
		Expect(testsupport.SeedUser(db, 250, hrSub.Email, 2, 2)).To(Succeed())
		Expect(testsupport.SeedUser(db, 201, alice.Email, 3, 1)).To(Succeed())

		c := &complaintDatamodel.Complaint{
			EmpID: 201, DeptID: 1, Title: "Printer", Description: "Printer on floor 2 is jammed",
			Severity: "High", Status: "Pending",
		}
		Expect(db.Create(c).Error).To(Succeed())
		complaintID = c.ComplaintID

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		pub = &recordingPublisher{}
		service = task.NewService(taskPostgres.NewTaskRepository(db), noopActivity{}, pub, logger)
	})

	addTask := func(p identity.Principal) (*task.Task, error) {
		return service.AddTask(ctx, p, task.CreateTaskDTO{ComplaintID: complaintID, Description: "Calling the vendor today"})
	}

	Describe("AddTask", func() {
		It("creates a pending task and starts the complaint", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(workflow.TaskPending))
			Expect(t.EmpID).To(Equal(itSub.EmpID))

			status, by := complaintStatus(db, complaintID)
			Expect(status).To(Equal("InProgress"))
			Expect(*by).To(Equal(itSub.EmpID))
			Expect(pub.types()).To(ConsistOf(events.EventTypeTaskAssigned))
		})

		It("refuses a second task by the same subadmin", func() {
			_, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())

			_, err = addTask(itSub)
			Expect(err).To(MatchError(internal.ErrTaskExists))
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(appErr.Message).To(Equal("Task already exists"))
		})

		It("hides complaints of other departments", func() {
			_, err := addTask(hrSub)
			Expect(err).To(MatchError(internal.ErrComplaintNotInDepartment))
			Expect(err.Error()).To(ContainSubstring("Complaint not found or not in your department"))

			status, _ := complaintStatus(db, complaintID)
			Expect(status).To(Equal("Pending"))
		})

		It("rejects terminal complaints", func() {
			Expect(db.Model(&complaintDatamodel.Complaint{}).Where("complaint_id = ?", complaintID).
				Update("status", "Rejected").Error).To(Succeed())
			_, err := addTask(itSub)
			Expect(err).To(MatchError(internal.ErrComplaintClosed))
		})

		It("is subadmin only", func() {
			_, err := addTask(alice)
			Expect(err).To(MatchError(internal.ErrAccessDenied))
			_, err = addTask(superadmin)
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})
	})

	Describe("UpdateTask", func() {
		It("edits the description only", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdateTask(ctx, itSub, t.TaskID, task.UpdateTaskDTO{Description: "Vendor visits tomorrow"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Description).To(Equal("Vendor visits tomorrow"))
			Expect(updated.Status).To(Equal(workflow.TaskPending))

			status, _ := complaintStatus(db, complaintID)
			Expect(status).To(Equal("InProgress"))
		})

		It("hides tasks owned by someone else", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateTask(ctx, hrSub, t.TaskID, task.UpdateTaskDTO{Description: "Not my task at all"})
			Expect(err).To(MatchError(internal.ErrTaskNotFound))
		})
	})

	Describe("CompleteTask", func() {
		It("completes the task and the complaint together", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())

			done, err := service.CompleteTask(ctx, itSub, t.TaskID)
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Status).To(Equal(workflow.TaskCompleted))

			status, _ := complaintStatus(db, complaintID)
			Expect(status).To(Equal("Complete"))
			Expect(pub.types()).To(Equal([]string{events.EventTypeTaskAssigned, events.EventTypeComplaintStatusChanged}))
		})

		It("leaves the task untouched when the complaint write fails", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())

			Expect(db.Callback().Update().Before("gorm:update").Register("test:fail_complaints", func(tx *gorm.DB) {
				if tx.Statement.Table == "complaints" {
					_ = tx.AddError(errors.New("disk full"))
				}
			})).To(Succeed())

			_, err = service.CompleteTask(ctx, itSub, t.TaskID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))

			var row taskDatamodel.SubadminTask
			Expect(db.First(&row, "task_id = ?", t.TaskID).Error).To(Succeed())
			Expect(row.Status).To(Equal("pending"))
			status, _ := complaintStatus(db, complaintID)
			Expect(status).To(Equal("InProgress"))
		})

		It("is a no-op on a completed task", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CompleteTask(ctx, itSub, t.TaskID)
			Expect(err).NotTo(HaveOccurred())

			again, err := service.CompleteTask(ctx, itSub, t.TaskID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(workflow.TaskCompleted))
			Expect(pub.types()).To(HaveLen(2))
		})

		It("refuses when the complaint was rejected meanwhile", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&complaintDatamodel.Complaint{}).Where("complaint_id = ?", complaintID).
				Update("status", "Rejected").Error).To(Succeed())

			_, err = service.CompleteTask(ctx, itSub, t.TaskID)
			Expect(err).To(MatchError(internal.ErrComplaintClosed))
		})
	})

	Describe("TaskRepository", func() {
		var repo task.RepositoryAPI

		BeforeEach(func() {
			repo = taskPostgres.NewTaskRepository(db)
		})

		It("rolls the task back when the complaint was rejected before completion", func() {
			t, err := addTask(itSub)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&complaintDatamodel.Complaint{}).Where("complaint_id = ?", complaintID).
				Update("status", "Rejected").Error).To(Succeed())

			err = repo.Complete(ctx, t.TaskID, complaintID, itSub.EmpID)
			Expect(err).To(MatchError(internal.ErrComplaintClosed))

			status, _ := complaintStatus(db, complaintID)
			Expect(status).To(Equal("Rejected"))
			var row taskDatamodel.SubadminTask
			Expect(db.First(&row, "task_id = ?", t.TaskID).Error).To(Succeed())
			Expect(row.Status).To(Equal(string(workflow.TaskPending)))
		})

		It("does not start a complaint that closed before the task was written", func() {
			Expect(db.Model(&complaintDatamodel.Complaint{}).Where("complaint_id = ?", complaintID).
				Update("status", "Complete").Error).To(Succeed())

			err := repo.CreateForComplaint(ctx, &taskDatamodel.SubadminTask{
				EmpID: itSub.EmpID, ComplaintID: complaintID, Description: "Calling the vendor today",
			})
			Expect(err).To(MatchError(internal.ErrComplaintClosed))

			var count int64
			Expect(db.Model(&taskDatamodel.SubadminTask{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	It("lists only the caller's tasks", func() {
		_, err := addTask(itSub)
		Expect(err).NotTo(HaveOccurred())

		page, err := service.ListMine(ctx, itSub, task.ListQuery{Limit: 20})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(int64(1)))

		page, err = service.ListMine(ctx, hrSub, task.ListQuery{Limit: 20})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Tasks).To(BeEmpty())
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			h := task.NewHandler(transport.NewBaseHandler(logger), service)
			router = chi.NewRouter()
			router.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), hrSub)))
				})
			})
			router.Post("/subadmin/tasks", h.CreateTask)
		})

		It("answers 404 for a cross-department task", func() {
			rec := httptest.NewRecorder()
			body := strings.NewReader(`{"complaint_id":1,"description":"Calling the vendor today"}`)
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subadmin/tasks", body))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring("Complaint not found or not in your department"))
		})
	})
})
