package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

// ErrNotPending is returned by the finalize operations when the row has
// already reached a terminal status (or does not exist). Terminal rows are
// immutable; a second finalize must fail loudly, never overwrite.
var ErrNotPending = errors.New("submission log is not in pending status")

// ErrMissingInvoiceRef is returned when a success finalize arrives without
// an invoice reference.
var ErrMissingInvoiceRef = errors.New("success finalize requires an invoice reference")

// Store owns the submission audit trail. Rows are append-only: one
// CreatePending per submission, then exactly one terminal update through
// FinalizeSuccess or FinalizeError.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// PendingEntry carries the classification fields and request snapshot for a
// new pending row.
type PendingEntry struct {
	TenantID          uuid.UUID
	Email             *string
	UsedPasswordLogin bool
	IssuerTaxID       string
	PointOfSale       int
	DocumentType      int
	TotalAmount       string
	RequestPayload    map[string]interface{}
}

// CreatePending persists the durability checkpoint: a pending row with zero
// attempts, written before any remote call is made.
func (s *Store) CreatePending(ctx context.Context, entry PendingEntry) (*models.SubmissionLog, error) {
	log := &models.SubmissionLog{
		TenantID:          entry.TenantID,
		Email:             entry.Email,
		UsedPasswordLogin: entry.UsedPasswordLogin,
		IssuerTaxID:       entry.IssuerTaxID,
		PointOfSale:       entry.PointOfSale,
		DocumentType:      entry.DocumentType,
		TotalAmount:       entry.TotalAmount,
		RequestPayload:    models.JSONB(entry.RequestPayload),
		Status:            models.SubmissionPending,
		Attempts:          0,
	}

	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, fmt.Errorf("failed to create pending submission log: %w", err)
	}

	s.logger.Debug("Pending submission log created",
		zap.String("log_id", log.ID.String()),
		zap.String("tenant_id", entry.TenantID.String()),
	)
	return log, nil
}

// FinalizeSuccess moves a pending row to success in a single atomic update.
// Returns ErrNotPending if the row is not currently pending.
func (s *Store) FinalizeSuccess(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, response map[string]interface{}, invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return ErrMissingInvoiceRef
	}

	updates := map[string]interface{}{
		"status":           models.SubmissionSuccess,
		"attempts":         attempts,
		"duration_ms":      durationMs,
		"response_payload": models.JSONB(response),
		"invoice_id":       invoiceID,
		"updated_at":       time.Now().UTC(),
	}
	return s.finalize(ctx, id, updates)
}

// FinalizeError moves a pending row to error in a single atomic update.
// The response snapshot may be nil when no remote body was received.
func (s *Store) FinalizeError(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, message string, response map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":        models.SubmissionError,
		"attempts":      attempts,
		"duration_ms":   durationMs,
		"error_message": message,
		"updated_at":    time.Now().UTC(),
	}
	if response != nil {
		updates["response_payload"] = models.JSONB(response)
	}
	return s.finalize(ctx, id, updates)
}

// finalize performs the guarded terminal update. The status predicate makes
// the transition atomic: concurrent finalizations race on the row and the
// loser sees zero affected rows.
func (s *Store) finalize(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&models.SubmissionLog{}).
		Where("id = ? AND status = ?", id, models.SubmissionPending).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to finalize submission log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		s.logger.Error("Refused to finalize non-pending submission log",
			zap.String("log_id", id.String()),
		)
		return ErrNotPending
	}
	return nil
}
