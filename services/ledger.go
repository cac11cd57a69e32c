package services

import (
	"bytes"
	"sort"

	"houseledger-backend/utils"

	"github.com/google/uuid"
)

// AllocationEntry is one finalized ledger contribution: UserID owes PayerID
// Amount. Expense allocations and finalized bill allocations both reduce to
// this shape.
type AllocationEntry struct {
	PayerID uuid.UUID
	UserID  uuid.UUID
	Amount  float64
}

// PaymentEntry is an approved member-to-member payment. It moves the
// pairwise balance between the two members toward zero.
type PaymentEntry struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     float64
}

// Transfer is one suggested settlement in the simplified debt graph.
type Transfer struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     float64
}

// PairwiseMatrix aggregates all finalized entries into a signed matrix:
// matrix[a][b] is the amount b owes a (so matrix[a][b] == -matrix[b][a]).
// Only commutative addition happens here, so entry order never matters.
func PairwiseMatrix(allocs []AllocationEntry, payments []PaymentEntry) map[uuid.UUID]map[uuid.UUID]float64 {
	matrix := make(map[uuid.UUID]map[uuid.UUID]float64)

	add := func(a, b uuid.UUID, amount float64) {
		if matrix[a] == nil {
			matrix[a] = make(map[uuid.UUID]float64)
		}
		matrix[a][b] += amount
	}

	for _, e := range allocs {
		// The payer's own share nets to zero against themself
		if e.UserID == e.PayerID || e.Amount == 0 {
			continue
		}
		add(e.PayerID, e.UserID, e.Amount)
		add(e.UserID, e.PayerID, -e.Amount)
	}

	for _, p := range payments {
		add(p.ToUserID, p.FromUserID, -p.Amount)
		add(p.FromUserID, p.ToUserID, p.Amount)
	}

	return matrix
}

// NetBalances collapses the pairwise matrix into one signed number per user.
// Positive = the house owes this user money.
func NetBalances(allocs []AllocationEntry, payments []PaymentEntry) map[uuid.UUID]float64 {
	matrix := PairwiseMatrix(allocs, payments)

	net := make(map[uuid.UUID]float64, len(matrix))
	for userID, row := range matrix {
		var sum float64
		for _, amount := range row {
			sum += amount
		}
		net[userID] = utils.RoundToTwo(sum)
	}
	return net
}

// PairwiseFor returns the signed balance between userID and every
// counterpart they have history with. Zero balances are dropped.
func PairwiseFor(userID uuid.UUID, allocs []AllocationEntry, payments []PaymentEntry) map[uuid.UUID]float64 {
	matrix := PairwiseMatrix(allocs, payments)

	result := make(map[uuid.UUID]float64)
	for counterpartID, amount := range matrix[userID] {
		rounded := utils.RoundToTwo(amount)
		if rounded != 0 {
			result[counterpartID] = rounded
		}
	}
	return result
}

// SimplifyDebts reduces the net balances to a minimal-ish set of transfers
// using greedy matching. Deterministic: users are processed in ascending ID
// order.
func SimplifyDebts(net map[uuid.UUID]float64) []Transfer {
	type userBalance struct {
		UserID uuid.UUID
		Amount float64
	}

	var creditors []userBalance
	var debtors []userBalance

	ids := make([]uuid.UUID, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	for _, id := range ids {
		rounded := utils.RoundToTwo(net[id])
		if rounded > 0.01 {
			creditors = append(creditors, userBalance{id, rounded})
		} else if rounded < -0.01 {
			debtors = append(debtors, userBalance{id, -rounded})
		}
	}

	var results []Transfer
	i, j := 0, 0

	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].Amount
		if creditors[j].Amount < amount {
			amount = creditors[j].Amount
		}
		amount = utils.RoundToTwo(amount)

		results = append(results, Transfer{
			FromUserID: debtors[i].UserID,
			ToUserID:   creditors[j].UserID,
			Amount:     amount,
		})

		debtors[i].Amount = utils.RoundToTwo(debtors[i].Amount - amount)
		creditors[j].Amount = utils.RoundToTwo(creditors[j].Amount - amount)

		if debtors[i].Amount < 0.01 {
			i++
		}
		if creditors[j].Amount < 0.01 {
			j++
		}
	}

	return results
}
