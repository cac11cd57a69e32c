package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Amount modes for a recurring charge
const (
	AmountModeFixed    = "Fixed"
	AmountModeVariable = "Variable"
)

// Split policies
const (
	SplitPolicyEqual  = "Equal"
	SplitPolicyWeight = "Weight"
)

// ChargeCycle statuses. Overdue is advisory and derived at read time, it is
// never stored.
const (
	CycleAwaitingBill = "AwaitingBill"
	CycleOpen         = "Open"
	CycleCollecting   = "Collecting"
	CycleFunded       = "Funded"
	CyclePaid         = "Paid"
	CycleOverdue      = "Overdue"
)

// ChargeContract is a standing definition of a periodic shared cost
// (rent, internet, utilities). It is long-lived and only toggled
// active/inactive after creation; each month it spawns one ChargeCycle.
type ChargeContract struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	HouseID           uuid.UUID      `gorm:"type:uuid;index" json:"house_id"`
	House             House          `gorm:"foreignKey:HouseID" json:"-"`
	Type              string         `gorm:"not null;size:30" json:"type"` // rent, internet, electric, water, other
	PayerUserID       uuid.UUID      `gorm:"type:uuid" json:"payer_user_id"`
	Payer             User           `gorm:"foreignKey:PayerUserID" json:"payer,omitempty"`
	AmountMode        string         `gorm:"not null;size:10" json:"amount_mode"` // Fixed, Variable
	SplitPolicy       string         `gorm:"not null;size:10" json:"split_policy"` // Equal, Weight
	FixedAmount       float64        `gorm:"type:decimal(12,2)" json:"fixed_amount"`
	DueDay            int            `gorm:"not null" json:"due_day"` // 1-28
	PaymentWindowDays int            `gorm:"not null" json:"payment_window_days"`
	StartMonth        string         `gorm:"not null;size:7" json:"start_month"` // YYYY-MM
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	Weights           []ChargeWeight `gorm:"foreignKey:ContractID" json:"weights,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (cc *ChargeContract) BeforeCreate(tx *gorm.DB) error {
	if cc.ID == uuid.Nil {
		cc.ID = uuid.New()
	}
	return nil
}

// ChargeWeight is one member's weight under a Weight split policy.
type ChargeWeight struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID uuid.UUID `gorm:"type:uuid;index" json:"contract_id"`
	UserID     uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Weight     float64   `gorm:"not null" json:"weight"`
}

func (cw *ChargeWeight) BeforeCreate(tx *gorm.DB) error {
	if cw.ID == uuid.Nil {
		cw.ID = uuid.New()
	}
	return nil
}

// ChargeCycle is one period's instantiation of a contract. The unique index
// on (contract_id, period) guarantees at most one cycle per period; a second
// insert surfaces as a duplicate-cycle conflict.
type ChargeCycle struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID         uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_contract_period" json:"contract_id"`
	Contract           ChargeContract `gorm:"foreignKey:ContractID" json:"-"`
	HouseID            uuid.UUID      `gorm:"type:uuid;index" json:"house_id"`
	Period             string         `gorm:"not null;size:7;uniqueIndex:idx_contract_period" json:"period"` // YYYY-MM
	PayerUserID        uuid.UUID      `gorm:"type:uuid" json:"payer_user_id"`
	Type               string         `gorm:"size:30" json:"type"`
	AmountMode         string         `gorm:"size:10" json:"amount_mode"`
	TotalAmount        float64        `gorm:"type:decimal(12,2)" json:"total_amount"`
	FundedAmount       float64        `gorm:"type:decimal(12,2);default:0" json:"funded_amount"`
	Status             string         `gorm:"not null;size:15" json:"status"`
	BillDate           *time.Time     `gorm:"type:date" json:"bill_date,omitempty"`
	DueDate            *time.Time     `gorm:"type:date" json:"due_date,omitempty"`
	BillDocumentURL    string         `json:"bill_document_url,omitempty"`
	PaidDate           *time.Time     `gorm:"type:date" json:"paid_date,omitempty"`
	ExternalReceiptURL string         `json:"external_receipt_url,omitempty"`
	Shares             []ChargeShare  `gorm:"foreignKey:CycleID" json:"per_user_shares,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (cy *ChargeCycle) BeforeCreate(tx *gorm.DB) error {
	if cy.ID == uuid.Nil {
		cy.ID = uuid.New()
	}
	return nil
}

// ChargeShare is one member's share of a cycle's total.
type ChargeShare struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CycleID uuid.UUID `gorm:"type:uuid;index" json:"cycle_id"`
	UserID  uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Amount  float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (cs *ChargeShare) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateRecurringChargeRequest struct {
	Type              string             `json:"type" binding:"required"`
	PayerUserID       string             `json:"payer_user_id" binding:"required"`
	AmountMode        string             `json:"amount_mode" binding:"required,oneof=Fixed Variable"`
	SplitPolicy       string             `json:"split_policy" binding:"required,oneof=Equal Weight"`
	FixedAmount       float64            `json:"fixed_amount"`
	Weights           map[string]float64 `json:"weights,omitempty"`
	DueDay            int                `json:"due_day" binding:"required,min=1,max=28"`
	PaymentWindowDays int                `json:"payment_window_days" binding:"required,min=1"`
	StartMonth        string             `json:"start_month" binding:"required"` // YYYY-MM
}

type SetCycleBillRequest struct {
	BillDate        string  `json:"bill_date" binding:"required"` // YYYY-MM-DD
	TotalAmount     float64 `json:"total_amount" binding:"required,gt=0"`
	BillDocumentURL string  `json:"bill_document_url"`
}

type MarkCyclePaidRequest struct {
	PaidDate           string `json:"paid_date" binding:"required"` // YYYY-MM-DD
	ExternalReceiptURL string `json:"external_receipt_url"`
}

// Response
type ChargeCycleResponse struct {
	ID            uuid.UUID            `json:"id"`
	ContractID    uuid.UUID            `json:"contract_id"`
	Period        string               `json:"period"`
	PayerUserID   uuid.UUID            `json:"payer_user_id"`
	PayerUserName string               `json:"payer_user_name,omitempty"`
	Type          string               `json:"type"`
	AmountMode    string               `json:"amount_mode"`
	TotalAmount   float64              `json:"total_amount"`
	FundedAmount  float64              `json:"funded_amount"`
	Status        string               `json:"status"`
	IsOverdue     bool                 `json:"is_overdue"`
	BillDate      *time.Time           `json:"bill_date,omitempty"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	PerUserShares []AllocationResponse `json:"per_user_shares,omitempty"`
}
