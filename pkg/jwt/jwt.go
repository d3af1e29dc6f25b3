package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/malamapl09/Picker-Scheduler/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const issuer = "picker-scheduler"

// Token types.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Identity who the token speaks for. StoreID and EmployeeID are empty for admins
// without a store or users without an employee record.
type Identity struct {
	UserID     string
	Role       string
	StoreID    string
	EmployeeID string
}

// IsManager reports whether the identity may run manager operations.
func (i Identity) IsManager() bool {
	return i.Role == "admin" || i.Role == "manager"
}

// Claims custom JWT claims.
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	StoreID    string `json:"store_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	TokenType  string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// Identity extracts the identity fields.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, StoreID: c.StoreID, EmployeeID: c.EmployeeID}
}

// Manager signs and parses HS256 tokens.
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewManager builds a Manager from auth config.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// AccessTokenTTL lifetime of access tokens.
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken signs a short-lived access token.
func (m *Manager) GenerateAccessToken(id Identity) (string, error) {
	return m.sign(id, TokenAccess, m.accessTokenTTL)
}

// GenerateRefreshToken signs a long-lived refresh token.
func (m *Manager) GenerateRefreshToken(id Identity) (string, error) {
	return m.sign(id, TokenRefresh, m.refreshTokenTTL)
}

func (m *Manager) sign(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     id.UserID,
		Role:       id.Role,
		StoreID:    id.StoreID,
		EmployeeID: id.EmployeeID,
		TokenType:  tokenType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies the signature and expiry.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
