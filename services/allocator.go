package services

import (
	"bytes"
	"sort"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/google/uuid"
)

// Share is one member's computed portion of a split total.
type Share struct {
	UserID uuid.UUID
	Amount float64
}

// Allocate splits totalAmount across the house members. Per-member carve-outs
// are taken off the top and charged entirely to their member; the remainder
// is split equally, or proportionally to weights under the Weight policy
// (zero-weight members owe nothing of the common portion). The payer gets a
// share too so the ledger nets correctly against themself.
//
// Shares are rounded to 2 decimals in ascending member-ID order with the
// residual cent(s) assigned to the last member, so the returned shares always
// sum to exactly totalAmount.
func Allocate(totalAmount float64, payerID uuid.UUID, memberIDs []uuid.UUID, carveOuts map[uuid.UUID]float64, splitPolicy string, weights map[uuid.UUID]float64) ([]Share, error) {
	if totalAmount <= 0 {
		return nil, utils.Validationf("total amount must be positive, got %.2f", totalAmount)
	}
	if len(memberIDs) == 0 {
		return nil, utils.InvalidAllocationf("cannot allocate an expense in a house with no members")
	}

	isMember := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		isMember[id] = true
	}
	if payerID != uuid.Nil && !isMember[payerID] {
		return nil, utils.InvalidAllocationf("payer is not a member of the house")
	}

	var carveTotal float64
	for userID, amount := range carveOuts {
		if amount < 0 {
			return nil, utils.InvalidAllocationf("personal expense for %s cannot be negative", userID)
		}
		if !isMember[userID] {
			return nil, utils.InvalidAllocationf("personal expense refers to non-member %s", userID)
		}
		carveTotal += amount
	}
	if carveTotal > totalAmount+0.005 {
		return nil, utils.InvalidAllocationf("personal expenses (%.2f) exceed total amount (%.2f)", carveTotal, totalAmount)
	}

	remainder := totalAmount - carveTotal

	// Common portion per member, full precision
	common := make(map[uuid.UUID]float64, len(memberIDs))
	switch splitPolicy {
	case "", models.SplitPolicyEqual:
		perMember := remainder / float64(len(memberIDs))
		for _, id := range memberIDs {
			common[id] = perMember
		}
	case models.SplitPolicyWeight:
		var weightSum float64
		for _, id := range memberIDs {
			if weights[id] < 0 {
				return nil, utils.InvalidAllocationf("weight for %s cannot be negative", id)
			}
			weightSum += weights[id]
		}
		if weightSum <= 0 {
			return nil, utils.InvalidAllocationf("weights must sum to a positive value")
		}
		for _, id := range memberIDs {
			common[id] = remainder * weights[id] / weightSum
		}
	default:
		return nil, utils.Validationf("invalid split policy: %s", splitPolicy)
	}

	// Round member-by-member in ascending ID order; the last member absorbs
	// the residual so the shares sum to exactly totalAmount.
	ordered := make([]uuid.UUID, len(memberIDs))
	copy(ordered, memberIDs)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	shares := make([]Share, 0, len(ordered))
	var allocated float64
	for i, id := range ordered {
		var amount float64
		if i == len(ordered)-1 {
			amount = utils.RoundToTwo(totalAmount - allocated)
		} else {
			amount = utils.RoundToTwo(common[id] + carveOuts[id])
			allocated += amount
		}
		shares = append(shares, Share{UserID: id, Amount: amount})
	}

	return shares, nil
}

// SplitSpec is the stored recipe for how an expense's total is divided. It is
// persisted alongside the allocation rows so an edit re-runs the original
// split instead of silently reverting to an equal one.
type SplitSpec struct {
	Policy    string
	CarveOuts map[uuid.UUID]float64
	Weights   map[uuid.UUID]float64
}

// SplitSpecFromAllocations rebuilds the split inputs from stored allocation
// rows.
func SplitSpecFromAllocations(policy string, allocs []models.ExpenseAllocation) SplitSpec {
	spec := SplitSpec{Policy: policy}
	if spec.Policy == "" {
		spec.Policy = models.SplitPolicyEqual
	}
	for _, a := range allocs {
		if a.CarveOut > 0 {
			if spec.CarveOuts == nil {
				spec.CarveOuts = make(map[uuid.UUID]float64)
			}
			spec.CarveOuts[a.UserID] = a.CarveOut
		}
		if a.Weight > 0 {
			if spec.Weights == nil {
				spec.Weights = make(map[uuid.UUID]float64)
			}
			spec.Weights[a.UserID] = a.Weight
		}
	}
	return spec
}
