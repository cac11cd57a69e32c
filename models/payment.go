package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses. Approved and Rejected are terminal.
const (
	PaymentPending  = "Pending"
	PaymentApproved = "Approved"
	PaymentRejected = "Rejected"
)

// Payment methods
const (
	MethodCash         = "Cash"
	MethodBankTransfer = "BankTransfer"
)

// Payment records money handed from one member to another. It affects
// balances only once approved by the payee; rejected payments never do.
type Payment struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	HouseID      uuid.UUID           `gorm:"type:uuid;index" json:"house_id"`
	FromUserID   uuid.UUID           `gorm:"type:uuid" json:"from_user_id"`
	FromUser     User                `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUserID     uuid.UUID           `gorm:"type:uuid" json:"to_user_id"`
	ToUser       User                `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
	Amount       float64             `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method       string              `gorm:"not null;size:15" json:"method"` // Cash, BankTransfer
	Note         string              `json:"note,omitempty"`
	Status       string              `gorm:"default:Pending;size:10" json:"status"`
	ReceiptURL   string              `json:"receipt_url,omitempty"`
	ChargeID     *uuid.UUID          `gorm:"type:uuid;index" json:"charge_id,omitempty"` // cycle being funded
	RejectReason string              `json:"reject_reason,omitempty"`
	ResolvedAt   *time.Time          `json:"resolved_at,omitempty"`
	Allocations  []PaymentAllocation `gorm:"foreignKey:PaymentID" json:"allocations,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PaymentAllocation ties part of a payment to a specific expense. Weak
// reference: deleting the expense later does not delete the payment.
type PaymentAllocation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID uuid.UUID  `gorm:"type:uuid;index" json:"payment_id"`
	ExpenseID *uuid.UUID `gorm:"type:uuid" json:"expense_id,omitempty"`
	Amount    float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (pa *PaymentAllocation) BeforeCreate(tx *gorm.DB) error {
	if pa.ID == uuid.Nil {
		pa.ID = uuid.New()
	}
	return nil
}

// Request structs
type PaymentAllocationInput struct {
	ExpenseID string  `json:"expense_id"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type CreatePaymentRequest struct {
	FromUserID  string                   `json:"from_user_id" binding:"required"`
	ToUserID    string                   `json:"to_user_id" binding:"required"`
	Amount      float64                  `json:"amount" binding:"required"`
	Method      string                   `json:"method" binding:"required,oneof=Cash BankTransfer"`
	Note        string                   `json:"note"`
	ReceiptURL  string                   `json:"receipt_url"`
	ChargeID    string                   `json:"charge_id"` // cycle ID, optional
	Allocations []PaymentAllocationInput `json:"allocations,omitempty"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}
