package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Expense struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	HouseID     uuid.UUID           `gorm:"type:uuid;index" json:"house_id"`
	House       House               `gorm:"foreignKey:HouseID" json:"-"`
	Type        string              `gorm:"not null;size:50" json:"type"` // market, food, utilities, other
	TotalAmount float64             `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency    string              `gorm:"default:TRY;size:3" json:"currency"`
	PaidBy      uuid.UUID           `gorm:"type:uuid" json:"paid_by"`
	Payer       User                `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	RecordedBy  uuid.UUID           `gorm:"type:uuid" json:"recorded_by"`
	Recorder    User                `gorm:"foreignKey:RecordedBy" json:"recorder,omitempty"`
	SplitPolicy string              `gorm:"default:Equal;size:10" json:"split_policy"` // Equal, Weight
	Notes       string              `json:"notes,omitempty"`
	Allocations []ExpenseAllocation `gorm:"foreignKey:ExpenseID" json:"allocations,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExpenseAllocation is one member's share of an expense. The payer gets a
// row too (accounting symmetry); the ledger nets it to zero against themself.
// Rows are written atomically with the expense, never directly by a client.
// CarveOut and Weight record the split inputs so later edits re-run the same
// split instead of falling back to an equal one.
type ExpenseAllocation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID uuid.UUID `gorm:"type:uuid;index" json:"expense_id"`
	UserID    uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CarveOut  float64   `gorm:"type:decimal(12,2);default:0" json:"carve_out,omitempty"`
	Weight    float64   `gorm:"default:0" json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ea *ExpenseAllocation) BeforeCreate(tx *gorm.DB) error {
	if ea.ID == uuid.Nil {
		ea.ID = uuid.New()
	}
	return nil
}

// Request structs
type CarveOutInput struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type CreateExpenseRequest struct {
	Type             string             `json:"type" binding:"required"`
	TotalAmount      float64            `json:"total_amount" binding:"required,gt=0"`
	PayerID          string             `json:"payer_id" binding:"required"`
	Notes            string             `json:"notes"`
	SplitPolicy      string             `json:"split_policy"` // Equal (default) or Weight
	Weights          map[string]float64 `json:"weights,omitempty"`
	PersonalExpenses []CarveOutInput    `json:"personal_expenses,omitempty"`
}

type UpdateExpenseRequest struct {
	Type             string             `json:"type"`
	TotalAmount      float64            `json:"total_amount"`
	PayerID          string             `json:"payer_id"`
	Notes            string             `json:"notes"`
	SplitPolicy      string             `json:"split_policy"`
	Weights          map[string]float64 `json:"weights,omitempty"`
	PersonalExpenses []CarveOutInput    `json:"personal_expenses,omitempty"`
}

// Response
type ExpenseResponse struct {
	ID          uuid.UUID            `json:"id"`
	HouseID     uuid.UUID            `json:"house_id"`
	Type        string               `json:"type"`
	TotalAmount float64              `json:"total_amount"`
	Currency    string               `json:"currency"`
	PaidBy      uuid.UUID            `json:"paid_by"`
	PayerName   string               `json:"payer_name"`
	RecordedBy  uuid.UUID            `json:"recorded_by"`
	SplitPolicy string               `json:"split_policy"`
	Notes       string               `json:"notes,omitempty"`
	Allocations []AllocationResponse `json:"allocations"`
	CreatedAt   time.Time            `json:"created_at"`
}

type AllocationResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Amount   float64   `json:"amount"`
}
