package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bill is a utility/invoice record. It starts as a draft and produces
// permanent ledger allocations exactly once, when finalized.
type Bill struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	HouseID           uuid.UUID        `gorm:"type:uuid;index" json:"house_id"`
	House             House            `gorm:"foreignKey:HouseID" json:"-"`
	CycleID           *uuid.UUID       `gorm:"type:uuid;index" json:"cycle_id,omitempty"`
	Title             string           `gorm:"not null;size:100" json:"title"`
	UtilityType       string           `gorm:"not null;size:30" json:"utility_type"` // electric, water, gas, internet, rent, other
	Amount            float64          `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string           `gorm:"default:TRY;size:3" json:"currency"`
	DueDate           time.Time        `gorm:"type:date" json:"due_date"`
	ResponsibleUserID uuid.UUID        `gorm:"type:uuid" json:"responsible_user_id"`
	Responsible       User             `gorm:"foreignKey:ResponsibleUserID" json:"responsible,omitempty"`
	Description       string           `json:"description,omitempty"`
	DocumentURL       string           `json:"document_url,omitempty"`
	IsPaid            bool             `gorm:"default:false" json:"is_paid"`
	FinalizedAt       *time.Time       `json:"finalized_at,omitempty"`
	Allocations       []BillAllocation `gorm:"foreignKey:BillID" json:"allocations,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BillAllocation rows exist only for finalized bills and are immutable.
type BillAllocation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BillID    uuid.UUID `gorm:"type:uuid;index" json:"bill_id"`
	UserID    uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (ba *BillAllocation) BeforeCreate(tx *gorm.DB) error {
	if ba.ID == uuid.Nil {
		ba.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateBillRequest struct {
	Title             string  `json:"title" binding:"required"`
	UtilityType       string  `json:"utility_type" binding:"required"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
	DueDate           string  `json:"due_date" binding:"required"` // YYYY-MM-DD
	ResponsibleUserID string  `json:"responsible_user_id" binding:"required"`
	Description       string  `json:"description"`
}

type UpdateBillRequest struct {
	Title             string  `json:"title"`
	UtilityType       string  `json:"utility_type"`
	Amount            float64 `json:"amount"`
	DueDate           string  `json:"due_date"`
	ResponsibleUserID string  `json:"responsible_user_id"`
	Description       string  `json:"description"`
}

type UploadDocumentRequest struct {
	DocumentURL string `json:"document_url" binding:"required"`
}
