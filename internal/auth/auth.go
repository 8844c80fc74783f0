package auth

import (
	"time"

	"github.com/frahmantamala/complaint-management/internal/core/identity"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims represents JWT token claims
type Claims struct {
	EmpID     int64     `json:"emp_id"`
	Email     string    `json:"email"`
	RoleID    int       `json:"role_id"`
	DeptID    int64     `json:"dept_id"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the caller identity.
func (c *Claims) Principal() identity.Principal {
	return identity.Principal{
		EmpID:  c.EmpID,
		Email:  c.Email,
		RoleID: identity.Role(c.RoleID),
		DeptID: c.DeptID,
	}
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(p identity.Principal) (string, error)
	GenerateRefreshToken(p identity.Principal) (string, error)
	ValidateToken(tokenString string, typ TokenType) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Profile struct {
	EmpID     int64     `json:"emp_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	DeptID    int64     `json:"dept_id"`
	RoleID    int       `json:"role_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is returned by register and login.
type Session struct {
	AuthTokens
	User Profile `json:"user"`
}

func ProfileFromDataModel(u *userDatamodel.User) Profile {
	return Profile{
		EmpID:     u.EmpID,
		Name:      u.Name,
		Email:     u.Email,
		DeptID:    u.DeptID,
		RoleID:    u.RoleID,
		Role:      identity.Role(u.RoleID).String(),
		CreatedAt: u.CreatedAt,
	}
}

func principalOf(u *userDatamodel.User) identity.Principal {
	return identity.Principal{
		EmpID:  u.EmpID,
		Email:  u.Email,
		RoleID: identity.Role(u.RoleID),
		DeptID: u.DeptID,
	}
}
