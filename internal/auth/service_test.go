package auth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/auth"
	authPostgres "github.com/frahmantamala/complaint-management/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/testsupport"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

type stubDepartments map[int64]bool

func (s stubDepartments) Exists(_ context.Context, id int64) (bool, error) {
	return s[id], nil
}

type activityEntry struct {
	EmpID  int64
	Action string
}

type fakeActivity struct {
	entries []activityEntry
}

func (f *fakeActivity) Record(_ context.Context, empID int64, action, _, _ string) {
	f.entries = append(f.entries, activityEntry{EmpID: empID, Action: action})
}

var _ = Describe("AuthService", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		service  *auth.Service
		tokenGen *auth.JWTTokenGenerator
		activity *fakeActivity
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testsupport.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		Expect(testsupport.SeedRoles(db)).To(Succeed())
		Expect(testsupport.SeedDepartment(db, 1, "IT")).To(Succeed())
		Expect(testsupport.SeedUser(db, 201, "alice@starkdigital.in", 3, 1)).To(Succeed())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen = auth.NewJWTTokenGenerator("access-secret-for-tests-access-secret", "refresh-secret-for-tests-refresh-secret", time.Minute, time.Hour)
		activity = &fakeActivity{}
		service = auth.NewService(authPostgres.NewRepository(db), tokenGen, stubDepartments{1: true}, activity, logger,
			auth.Options{BCryptCost: bcrypt.MinCost, AllowedEmailDomain: "@starkdigital.in"})
	})

	Describe("Register", func() {
		validDTO := func() auth.RegisterDTO {
			return auth.RegisterDTO{EmpID: 305, Name: "Bob", Email: "Bob@StarkDigital.in", Password: "hunter22", DeptID: 1}
		}

		It("creates a role 3 user and returns a session", func() {
			session, err := service.Register(ctx, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(session.AccessToken).NotTo(BeEmpty())
			Expect(session.RefreshToken).NotTo(BeEmpty())
			Expect(session.User.RoleID).To(Equal(3))
			Expect(session.User.Email).To(Equal("bob@starkdigital.in"))

			claims, err := service.ValidateAccessToken(session.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Principal()).To(Equal(identity.Principal{
				EmpID: 305, Email: "bob@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1,
			}))
			Expect(activity.entries).To(ContainElement(activityEntry{EmpID: 305, Action: "register"}))
		})

		It("rejects employee ids outside 100-999", func() {
			dto := validDTO()
			dto.EmpID = 1000
			_, err := service.Register(ctx, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Messages()).To(ContainElement("emp_id must be between 100 and 999"))
		})

		It("rejects foreign email domains", func() {
			dto := validDTO()
			dto.Email = "bob@gmail.com"
			_, err := service.Register(ctx, dto)
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Messages()).To(ContainElement("email must end with @starkdigital.in"))
		})

		It("rejects unknown departments", func() {
			dto := validDTO()
			dto.DeptID = 9
			_, err := service.Register(ctx, dto)
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))
		})

		It("rejects duplicate employee ids and emails", func() {
			dto := validDTO()
			dto.EmpID = 201
			_, err := service.Register(ctx, dto)
			Expect(err).To(MatchError(internal.ErrEmpIDTaken))

			dto = validDTO()
			dto.Email = "alice@starkdigital.in"
			_, err = service.Register(ctx, dto)
			Expect(err).To(MatchError(internal.ErrEmailTaken))
		})
	})

	Describe("Login", func() {
		It("returns tokens for valid credentials", func() {
			session, err := service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "password"})
			Expect(err).NotTo(HaveOccurred())
			Expect(session.User.EmpID).To(Equal(int64(201)))

			var u userDatamodel.User
			Expect(db.First(&u, "emp_id = ?", 201).Error).To(Succeed())
			Expect(u.RefreshToken).NotTo(BeNil())
		})

		It("does not distinguish unknown email from wrong password", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "wrong"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))

			_, err = service.Login(ctx, auth.LoginDTO{Email: "nobody@starkdigital.in", Password: "password"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("requires both fields", func() {
			_, err := service.Login(ctx, auth.LoginDTO{})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Messages()).To(ConsistOf("email is required", "password is required"))
		})
	})

	Describe("Refresh", func() {
		It("rotates the stored token so the old one stops working", func() {
			session, err := service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: session.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.RefreshToken).NotTo(Equal(session.RefreshToken))

			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: session.RefreshToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects access tokens presented as refresh tokens", func() {
			session, err := service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: session.AccessToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("stops working after logout", func() {
			session, err := service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			p := identity.Principal{EmpID: 201, Email: "alice@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1}
			Expect(service.Logout(ctx, p)).To(Succeed())

			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: session.RefreshToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("UpdateProfile", func() {
		p := identity.Principal{EmpID: 201, Email: "alice@starkdigital.in", RoleID: identity.RoleUser, DeptID: 1}

		It("changes the name", func() {
			profile, err := service.UpdateProfile(ctx, p, auth.UpdateProfileDTO{Name: "Alice Cooper"})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Name).To(Equal("Alice Cooper"))
		})

		It("requires the current password to change it", func() {
			_, err := service.UpdateProfile(ctx, p, auth.UpdateProfileDTO{CurrentPassword: "nope", NewPassword: "newpass1"})
			Expect(err).To(MatchError(internal.ErrIncorrectPassword))

			_, err = service.UpdateProfile(ctx, p, auth.UpdateProfileDTO{CurrentPassword: "password", NewPassword: "newpass1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Login(ctx, auth.LoginDTO{Email: "alice@starkdigital.in", Password: "newpass1"})
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("JWTTokenGenerator", func() {
	p := identity.Principal{EmpID: 150, Email: "x@starkdigital.in", RoleID: identity.RoleSubadmin, DeptID: 2}

	It("round-trips the principal", func() {
		gen := auth.NewJWTTokenGenerator("a-secret-a-secret-a-secret-a-secret", "r-secret-r-secret-r-secret-r-secret", time.Minute, time.Hour)
		token, err := gen.GenerateAccessToken(p)
		Expect(err).NotTo(HaveOccurred())

		claims, err := gen.ValidateToken(token, auth.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Principal()).To(Equal(p))
	})

	It("reports expired tokens", func() {
		gen := auth.NewJWTTokenGenerator("a-secret-a-secret-a-secret-a-secret", "r-secret-r-secret-r-secret-r-secret", time.Minute, time.Hour)
		gen.AccessTokenTTL = -time.Minute
		token, err := gen.GenerateAccessToken(p)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateToken(token, auth.AccessToken)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})

	It("rejects tokens signed with another secret", func() {
		gen := auth.NewJWTTokenGenerator("a-secret-a-secret-a-secret-a-secret", "r-secret-r-secret-r-secret-r-secret", time.Minute, time.Hour)
		other := auth.NewJWTTokenGenerator("another-secret-another-secret-xx", "r-secret-r-secret-r-secret-r-secret", time.Minute, time.Hour)
		token, err := other.GenerateAccessToken(p)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateToken(token, auth.AccessToken)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})
})
