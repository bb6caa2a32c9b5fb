package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles resolved from a request credential.
const (
	RoleGuest  = "guest"
	RoleHost   = "host"
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// Delegated privileges a worker account may hold.
const (
	PrivilegeManageBookings = "bookings:manage"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the JWT payload the engine trusts for actor resolution.
type Claims struct {
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	Privileges []string  `json:"privileges,omitempty"`
	jwt.RegisteredClaims
}

// Actor is a resolved caller: identity, role and delegated privileges.
type Actor struct {
	ID         uuid.UUID
	Role       string
	Privileges []string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// HasPrivilege reports whether the actor is an admin or a worker holding the
// named delegated privilege.
func (a Actor) HasPrivilege(p string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	if a.Role != RoleWorker {
		return false
	}
	for _, held := range a.Privileges {
		if held == p {
			return true
		}
	}
	return false
}

// JWTManager issues and validates access tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a JWTManager with the given signing secret and TTLs.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Generate issues a signed access token for the given actor.
func (m *JWTManager) Generate(userID uuid.UUID, role string, privileges []string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:     userID,
		Role:       role,
		Privileges: privileges,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses and verifies a token, returning its claims.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
