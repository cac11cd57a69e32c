package models

import "github.com/google/uuid"

// PairwiseBalance is the signed amount between the queried user and one
// counterpart. Positive = counterpart owes the user.
type PairwiseBalance struct {
	CounterpartID   uuid.UUID `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name,omitempty"`
	Amount          float64   `json:"amount"`
}

// UserBalanceSummary is returned for GET /api/houses/:id/balances/:uid
type UserBalanceSummary struct {
	HouseID    uuid.UUID         `json:"house_id"`
	UserID     uuid.UUID         `json:"user_id"`
	NetBalance float64           `json:"net_balance"` // positive = net creditor
	Currency   string            `json:"currency"`
	Pairwise   []PairwiseBalance `json:"pairwise"`
}

// SettlementSuggestion is one transfer in the simplified debt graph.
type SettlementSuggestion struct {
	FromUserID   uuid.UUID `json:"from_user_id"`
	FromUserName string    `json:"from_user_name"`
	ToUserID     uuid.UUID `json:"to_user_id"`
	ToUserName   string    `json:"to_user_name"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
}

// HouseBalanceSummary is returned for GET /api/houses/:id/balances
type HouseBalanceSummary struct {
	HouseID     uuid.UUID             `json:"house_id"`
	HouseName   string                `json:"house_name"`
	NetBalances map[string]float64    `json:"net_balances"` // user ID -> net amount
	TotalSpent  float64               `json:"total_spent"`
}
