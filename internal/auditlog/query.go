package auditlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// sortColumns is the whitelist of sortable columns. Anything else silently
// falls back to created_at.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"attempts":     "attempts",
	"status":       "status",
}

// ListFilter is the parameterized filter specification for the audit-log
// view. Every field maps to a bound-parameter predicate; zero values (nil
// pointers, empty strings) are no-ops. Filters combine with AND.
type ListFilter struct {
	TenantID uuid.UUID

	Status            string
	IssuerTaxID       string
	PointOfSale       *int
	DocumentType      *int
	HasInvoice        *bool
	Email             string
	UsedPasswordLogin *bool
	AttemptsMin       *int
	AttemptsMax       *int
	Search            string
	From              string
	To                string
	MinAmount         *float64
	MaxAmount         *float64

	SortBy  string
	SortDir string

	Page     int
	PageSize int
}

// PageMeta describes the returned page relative to the full result set.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type ListResult struct {
	Items []models.SubmissionLog `json:"items"`
	Meta  PageMeta               `json:"meta"`
}

// List returns one page of audit-log rows for a tenant, filtered, sorted
// and counted. Read-only; safe to run concurrently with in-flight
// submissions.
func (s *Store) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	page, pageSize := normalizePagination(f.Page, f.PageSize)

	var total int64
	if err := s.applyFilters(s.db.WithContext(ctx), f).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count submission logs: %w", err)
	}

	order := fmt.Sprintf("%s %s", sortColumn(f.SortBy), sortDirection(f.SortDir))

	items := []models.SubmissionLog{}
	err := s.applyFilters(s.db.WithContext(ctx), f).
		Preload("Invoice").
		Order(order).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query submission logs: %w", err)
	}

	return &ListResult{
		Items: items,
		Meta:  computeMeta(page, pageSize, total),
	}, nil
}

func (s *Store) applyFilters(db *gorm.DB, f ListFilter) *gorm.DB {
	q := db.Model(&models.SubmissionLog{}).Where("tenant_id = ?", f.TenantID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.IssuerTaxID != "" {
		q = q.Where("issuer_tax_id = ?", f.IssuerTaxID)
	}
	if f.PointOfSale != nil {
		q = q.Where("point_of_sale = ?", *f.PointOfSale)
	}
	if f.DocumentType != nil {
		q = q.Where("document_type = ?", *f.DocumentType)
	}
	if f.HasInvoice != nil {
		if *f.HasInvoice {
			q = q.Where("invoice_id IS NOT NULL")
		} else {
			q = q.Where("invoice_id IS NULL")
		}
	}
	if f.Email != "" {
		q = q.Where("email ILIKE ?", "%"+f.Email+"%")
	}
	if f.UsedPasswordLogin != nil {
		q = q.Where("used_password_login = ?", *f.UsedPasswordLogin)
	}
	if f.AttemptsMin != nil {
		q = q.Where("attempts >= ?", *f.AttemptsMin)
	}
	if f.AttemptsMax != nil {
		q = q.Where("attempts <= ?", *f.AttemptsMax)
	}
	if f.Search != "" {
		q = q.Where("error_message ILIKE ?", "%"+f.Search+"%")
	}
	if from, ok := DayStart(f.From); ok {
		q = q.Where("created_at >= ?", from)
	}
	if to, ok := DayEnd(f.To); ok {
		q = q.Where("created_at <= ?", to)
	}
	if f.MinAmount != nil {
		q = q.Where("total_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("total_amount <= ?", *f.MaxAmount)
	}

	return q
}

// DayStart parses a date string and normalizes it to 00:00:00.000 UTC of
// that day. Accepts 'YYYY-MM-DD' or a full RFC 3339 timestamp.
func DayStart(s string) (time.Time, bool) {
	d, ok := parseDay(s)
	if !ok {
		return time.Time{}, false
	}
	return d, true
}

// DayEnd normalizes a date string to 23:59:59.999 UTC of that day.
func DayEnd(s string) (time.Time, bool) {
	d, ok := parseDay(s)
	if !ok {
		return time.Time{}, false
	}
	return d.Add(24*time.Hour - time.Millisecond), true
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
		t = t.UTC()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func sortColumn(key string) string {
	if col, ok := sortColumns[key]; ok {
		return col
	}
	return "created_at"
}

func sortDirection(dir string) string {
	if strings.EqualFold(dir, "ASC") {
		return "ASC"
	}
	return "DESC"
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func computeMeta(page, pageSize int, total int64) PageMeta {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	return PageMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    int64(page) < totalPages,
		HasPrev:    page > 1,
	}
}
