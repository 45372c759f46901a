package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiration is the session lifetime.
const DefaultExpiration = 30 * 24 * time.Hour

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey string
	Expiration time.Duration
}

// UserClaims is the signed session payload. id, tenantId and role are what
// downstream authorization reads; name, email and image are display fields.
type UserClaims struct {
	UserID   string  `json:"id"`
	TenantID *string `json:"tenantId"`
	Role     string  `json:"role"`
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email,omitempty"`
	Image    string  `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// Tenant returns the tenant id or "" when the claims carry none.
func (c *UserClaims) Tenant() string {
	if c.TenantID == nil {
		return ""
	}
	return *c.TenantID
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
		now:    time.Now,
	}
}

// Expiration returns the configured token lifetime.
func (j *JWTUtil) Expiration() time.Duration {
	return j.config.Expiration
}

// GenerateToken signs the claims with HS256. Registered claims are reset on
// every call so a refreshed token gets a new id and a full lifetime.
func (j *JWTUtil) GenerateToken(claims UserClaims) (string, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return "", errors.New("JWT configuration not provided")
	}

	now := j.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.config.Expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
