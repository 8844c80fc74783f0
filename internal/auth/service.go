package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByEmpID(ctx context.Context, empID int64) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	SetRefreshToken(ctx context.Context, empID int64, digest *string) error
	UpdateProfile(ctx context.Context, empID int64, name string, passwordHash *string) error
}

// DepartmentChecker reports whether a department exists.
type DepartmentChecker interface {
	Exists(ctx context.Context, deptID int64) (bool, error)
}

// ActivityRecorder appends to the audit trail. Failures are the recorder's concern.
type ActivityRecorder interface {
	Record(ctx context.Context, empID int64, action, description, module string)
}

type Options struct {
	BCryptCost         int
	AllowedEmailDomain string
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	departments    DepartmentChecker
	activity       ActivityRecorder
	logger         *slog.Logger
	bcryptCost     int
	emailDomain    string
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, departments DepartmentChecker, activity ActivityRecorder, logger *slog.Logger, opts Options) *Service {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		departments:    departments,
		activity:       activity,
		logger:         logger,
		bcryptCost:     opts.BCryptCost,
		emailDomain:    opts.AllowedEmailDomain,
	}
}

// Register creates a role-3 user and signs them in.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Session, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(s.emailDomain); err != nil {
		return nil, err
	}

	exists, err := s.departments.Exists(ctx, dto.DeptID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check department", err)
	}
	if !exists {
		return nil, internal.ErrDepartmentNotFound
	}

	if err := s.ensureUnique(ctx, dto.EmpID, dto.Email); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &userDatamodel.User{
		EmpID:        dto.EmpID,
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		DeptID:       dto.DeptID,
		RoleID:       int(identity.RoleUser),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "emp_id", u.EmpID, "dept_id", u.DeptID)
	s.activity.Record(ctx, u.EmpID, "register", "Registered a new account", "auth")

	return s.startSession(ctx, u)
}

func (s *Service) ensureUnique(ctx context.Context, empID int64, email string) error {
	if _, err := s.repo.GetByEmpID(ctx, empID); err == nil {
		return internal.ErrEmpIDTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return internal.ErrEmailTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return err
	}
	return nil
}

// Login validates credentials and returns tokens
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.WarnContext(ctx, "login failed", "emp_id", u.EmpID)
		return nil, internal.ErrInvalidCredentials
	}

	s.activity.Record(ctx, u.EmpID, "login", "Logged in", "auth")
	return s.startSession(ctx, u)
}

func (s *Service) startSession(ctx context.Context, u *userDatamodel.User) (*Session, error) {
	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Session{AuthTokens: *tokens, User: ProfileFromDataModel(u)}, nil
}

// issue signs a new pair and stores the refresh token digest, replacing any
// previous session.
func (s *Service) issue(ctx context.Context, u *userDatamodel.User) (*AuthTokens, error) {
	p := principalOf(u)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(p)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(p)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	digest := tokenDigest(refreshToken)
	if err := s.repo.SetRefreshToken(ctx, u.EmpID, &digest); err != nil {
		return nil, err
	}

	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates the session. The presented token must be the one stored for
// the user; the new tokens carry the user's current role and department.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (*AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokenGenerator.ValidateToken(dto.RefreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmpID(ctx, claims.EmpID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}

	if u.RefreshToken == nil || *u.RefreshToken != tokenDigest(dto.RefreshToken) {
		s.logger.WarnContext(ctx, "stale refresh token presented", "emp_id", u.EmpID)
		return nil, internal.ErrInvalidToken
	}

	return s.issue(ctx, u)
}

// Logout forgets the stored refresh token.
func (s *Service) Logout(ctx context.Context, p identity.Principal) error {
	if err := s.repo.SetRefreshToken(ctx, p.EmpID, nil); err != nil {
		return err
	}
	s.activity.Record(ctx, p.EmpID, "logout", "Logged out", "auth")
	return nil
}

func (s *Service) Profile(ctx context.Context, p identity.Principal) (*Profile, error) {
	u, err := s.repo.GetByEmpID(ctx, p.EmpID)
	if err != nil {
		return nil, err
	}
	profile := ProfileFromDataModel(u)
	return &profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p identity.Principal, dto UpdateProfileDTO) (*Profile, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmpID(ctx, p.EmpID)
	if err != nil {
		return nil, err
	}

	var newHash *string
	if dto.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
			return nil, internal.ErrIncorrectPassword
		}
		hash, err := s.HashPassword(dto.NewPassword)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		newHash = &hash
	}

	name := u.Name
	if dto.Name != "" {
		name = dto.Name
	}

	if err := s.repo.UpdateProfile(ctx, u.EmpID, name, newHash); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, u.EmpID, "update_profile", "Updated profile", "auth")

	u.Name = name
	profile := ProfileFromDataModel(u)
	return &profile, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, AccessToken)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
