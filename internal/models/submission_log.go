package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONB stores an arbitrary JSON object in a jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported jsonb source type")
	}
	return json.Unmarshal(raw, j)
}

// SubmissionStatus is the lifecycle state of a submission attempt log.
// A row starts as pending and moves exactly once to success or error.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSuccess SubmissionStatus = "success"
	SubmissionError   SubmissionStatus = "error"
)

// SubmissionLog is the durable audit record of one invoice submission:
// what was sent, how many remote calls were made, and how it ended.
type SubmissionLog struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID          uuid.UUID        `gorm:"type:uuid;not null" json:"tenant_id"`
	Tenant            Tenant           `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Email             *string          `gorm:"type:varchar(255)" json:"email"`
	UsedPasswordLogin bool             `gorm:"not null;default:false" json:"used_password_login"`
	IssuerTaxID       string           `gorm:"type:varchar(20);not null" json:"issuer_tax_id"`
	PointOfSale       int              `gorm:"not null" json:"point_of_sale"`
	DocumentType      int              `gorm:"not null" json:"document_type"`
	TotalAmount       string           `gorm:"type:numeric(18,2);not null" json:"total_amount"`
	RequestPayload    JSONB            `gorm:"type:jsonb" json:"request_payload"`
	ResponsePayload   JSONB            `gorm:"type:jsonb" json:"response_payload,omitempty"`
	Status            SubmissionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	ErrorMessage      *string          `gorm:"type:text" json:"error_message"`
	Attempts          int              `gorm:"not null;default:0" json:"attempts"`
	DurationMs        *int64           `json:"duration_ms"`
	InvoiceID         *uuid.UUID       `gorm:"type:uuid" json:"invoice_id"`
	Invoice           *Invoice         `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	CreatedAt         time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (SubmissionLog) TableName() string {
	return "submission_log"
}
