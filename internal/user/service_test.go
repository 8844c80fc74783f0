package user_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	notificationDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/testsupport"
	"github.com/frahmantamala/complaint-management/internal/user"
	userPostgres "github.com/frahmantamala/complaint-management/internal/user/postgres"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type plainHasher struct{}

func (plainHasher) HashPassword(pw string) (string, error) { return "hashed:" + pw, nil }

type stubDepartments map[int64]bool

func (s stubDepartments) Exists(_ context.Context, id int64) (bool, error) { return s[id], nil }

type noopActivity struct{}

func (noopActivity) Record(context.Context, int64, string, string, string) {}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("User Service", func() {
	var (
		ctx        context.Context
		db         *gorm.DB
		service    *user.Service
		superadmin = identity.Principal{EmpID: 100, Email: "root@starkdigital.in", RoleID: identity.RoleSuperadmin, DeptID: 1}
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		Expect(testsupport.SeedRoles(db)).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 1, "IT")).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 2, "HR")).To(Succeed())
		Expect(testsupport.SeedUser(db, 100, "root@starkdigital.in", 1, 1)).To(Succeed())
		Expect(testsupport.SeedUser(db, 201, "alice@starkdigital.in", 3, 1)).To(Succeed())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(userPostgres.NewUserRepository(db), plainHasher{}, stubDepartments{1: true, 2: true},
			noopActivity{}, logger, "@starkdigital.in")
	})

	Describe("CreateSubadmin", func() {
		dto := user.CreateSubadminDTO{EmpID: 150, Name: "Sam", Email: "sam@starkdigital.in", Password: "secret1", DeptID: 1}

		It("creates a role 2 user", func() {
			u, err := service.CreateSubadmin(ctx, superadmin, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.RoleID).To(Equal(2))
			Expect(u.Role).To(Equal("subadmin"))

			var row userDatamodel.User
			Expect(db.First(&row, "emp_id = ?", 150).Error).To(Succeed())
			Expect(row.PasswordHash).To(Equal("hashed:secret1"))
		})

		It("allows only one subadmin per department", func() {
			_, err := service.CreateSubadmin(ctx, superadmin, dto)
			Expect(err).NotTo(HaveOccurred())

			second := dto
			second.EmpID, second.Email = 151, "sam2@starkdigital.in"
			_, err = service.CreateSubadmin(ctx, superadmin, second)
			Expect(err).To(MatchError(internal.ErrSubadminExists))

			second.DeptID = 2
			_, err = service.CreateSubadmin(ctx, superadmin, second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires an existing department", func() {
			missing := dto
			missing.DeptID = 7
			_, err := service.CreateSubadmin(ctx, superadmin, missing)
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))
		})

		It("is superadmin only", func() {
			_, err := service.CreateSubadmin(ctx, identity.Principal{EmpID: 201, RoleID: identity.RoleUser, DeptID: 1}, dto)
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})
	})

	Describe("Update", func() {
		It("clears the session when the role changes", func() {
			token := "digest"
			Expect(db.Model(&userDatamodel.User{}).Where("emp_id = ?", 201).Update("refresh_token", &token).Error).To(Succeed())

			u, err := service.Update(ctx, superadmin, 201, user.UpdateUserDTO{RoleID: intPtr(2)})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.RoleID).To(Equal(2))

			var row userDatamodel.User
			Expect(db.First(&row, "emp_id = ?", 201).Error).To(Succeed())
			Expect(row.RefreshToken).To(BeNil())
		})

		It("keeps the session on a rename", func() {
			token := "digest"
			Expect(db.Model(&userDatamodel.User{}).Where("emp_id = ?", 201).Update("refresh_token", &token).Error).To(Succeed())

			name := "Alice B"
			_, err := service.Update(ctx, superadmin, 201, user.UpdateUserDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())

			var row userDatamodel.User
			Expect(db.First(&row, "emp_id = ?", 201).Error).To(Succeed())
			Expect(row.Name).To(Equal("Alice B"))
			Expect(row.RefreshToken).NotTo(BeNil())
		})

		It("refuses a second subadmin through promotion", func() {
			Expect(testsupport.SeedUser(db, 150, "sam@starkdigital.in", 2, 1)).To(Succeed())
			_, err := service.Update(ctx, superadmin, 201, user.UpdateUserDTO{RoleID: intPtr(2)})
			Expect(err).To(MatchError(internal.ErrSubadminExists))

			_, err = service.Update(ctx, superadmin, 201, user.UpdateUserDTO{RoleID: intPtr(2), DeptID: int64Ptr(2)})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects promotion to superadmin", func() {
			_, err := service.Update(ctx, superadmin, 201, user.UpdateUserDTO{RoleID: intPtr(1)})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Messages()).To(ConsistOf("role_id must be 2 or 3"))
		})

		It("never touches superadmin accounts", func() {
			name := "Root"
			_, err := service.Update(ctx, superadmin, 100, user.UpdateUserDTO{Name: &name})
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})
	})

	Describe("Delete", func() {
		It("refuses self deletion", func() {
			Expect(service.Delete(ctx, superadmin, 100)).To(MatchError(internal.ErrCannotDeleteSelf))
		})

		It("refuses while the user authored complaints", func() {
			Expect(db.Create(&complaintDatamodel.Complaint{
				EmpID: 201, DeptID: 1, Title: "Printer down", Description: "Printer is broken", Severity: "High", Status: "Pending",
			}).Error).To(Succeed())
			Expect(service.Delete(ctx, superadmin, 201)).To(MatchError(internal.ErrUserInUse))
		})

		It("removes the user and their notifications", func() {
			Expect(db.Create(&notificationDatamodel.Notification{EmpID: 201, Title: "t", Message: "m", Type: "system"}).Error).To(Succeed())
			Expect(service.Delete(ctx, superadmin, 201)).To(Succeed())

			var count int64
			Expect(db.Model(&notificationDatamodel.Notification{}).Where("emp_id = ?", 201).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
			_, err := service.Get(ctx, superadmin, 201)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	It("filters the listing", func() {
		page, err := service.List(ctx, superadmin, user.ListFilter{RoleID: 3, Limit: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(int64(1)))
		Expect(page.Users[0].EmpID).To(Equal(int64(201)))
	})
})
