package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

// Store persists authorized invoices. Rows are write-once: the pipeline
// creates them after a successful remote authorization and never updates
// them.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, invoice *models.Invoice) error {
	if err := s.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// FindByID returns nil when no invoice exists with the given id.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &invoice, nil
}

// FindAllByTenant lists a tenant's invoices, newest issue date first.
func (s *Store) FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Invoice, error) {
	items := []models.Invoice{}
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("issue_date DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return items, nil
}
