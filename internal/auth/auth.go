package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/juansemartinez01/API-FACTURACION/internal/config"
	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

// ErrInvalidCredentials covers both unknown email and wrong password; the
// caller cannot tell which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TenantByEmail resolves a tenant for login. Nil tenant, nil error means
// unknown email.
type TenantByEmail interface {
	FindByEmail(ctx context.Context, email string) (*models.Tenant, error)
}

// Service issues and verifies tenant access tokens.
type Service struct {
	tenants TenantByEmail
	secret  []byte
	ttl     time.Duration
}

func NewService(tenants TenantByEmail, cfg *config.AuthConfig) *Service {
	return &Service{
		tenants: tenants,
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.TokenTTL,
	}
}

// Login verifies the password and returns a signed HS256 token carrying the
// tenant id.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	tenant, err := s.tenants.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if tenant == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   tenant.ID.String(),
		"email": tenant.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the tenant id carried by a valid token.
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidCredentials
	}
	return sub, nil
}
