package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Invoice is the persisted result of a successful submission. It is created
// only after the remote service authorized the document and is immutable
// thereafter.
type Invoice struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CAE       string        `gorm:"column:cae;not null" json:"cae"`
	CAEExpiry string        `gorm:"column:cae_expiry;not null" json:"vencimiento"`
	Number    int64         `gorm:"column:number;not null" json:"nro_comprobante"`
	IssueDate string        `gorm:"column:issue_date;not null" json:"fecha"`
	QRURL     string        `gorm:"column:qr_url" json:"qr_url"`
	TenantID  uuid.UUID     `gorm:"type:uuid;not null" json:"tenant_id"`
	Tenant    Tenant        `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	SaleIDs   pq.Int64Array `gorm:"column:sale_ids;type:bigint[]" json:"ventas_ids,omitempty"`
	CreatedAt time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}
