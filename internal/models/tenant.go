package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the business entity on whose behalf invoices are issued.
type Tenant struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	CUIT         string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"cuit"`
	Email        string    `gorm:"not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
