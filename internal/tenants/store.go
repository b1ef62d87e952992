package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

// ErrCUITTaken is returned when registration collides with an existing CUIT.
var ErrCUITTaken = errors.New("a tenant with this CUIT already exists")

// ValidationError marks registration input the caller can fix.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// Store resolves and registers tenants.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RegisterInput carries the fields for a new tenant. The plain password is
// hashed here and never persisted.
type RegisterInput struct {
	Name     string `json:"nombre"`
	CUIT     string `json:"cuit"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name"}
	}
	if in.CUIT == "" {
		return &ValidationError{Field: "cuit"}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email"}
	}
	if in.Password == "" {
		return &ValidationError{Field: "password"}
	}
	return nil
}

func (s *Store) Register(ctx context.Context, in RegisterInput) (*models.Tenant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.FindByCUIT(ctx, in.CUIT)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCUITTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tenant := &models.Tenant{
		Name:         in.Name,
		CUIT:         in.CUIT,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenant, nil
}

// FindByID returns nil when the tenant does not exist.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) FindByCUIT(ctx context.Context, cuit string) (*models.Tenant, error) {
	return s.findOne(ctx, "cuit = ?", cuit)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *Store) findOne(ctx context.Context, query string, arg interface{}) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where(query, arg).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return &tenant, nil
}
