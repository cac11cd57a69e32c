package services

import (
	"testing"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed IDs in ascending byte order so rounding results are deterministic.
var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	carol = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func shareMap(shares []Share) map[uuid.UUID]float64 {
	m := make(map[uuid.UUID]float64, len(shares))
	for _, s := range shares {
		m[s.UserID] = s.Amount
	}
	return m
}

func sumShares(shares []Share) float64 {
	var sum float64
	for _, s := range shares {
		sum += s.Amount
	}
	return utils.RoundToTwo(sum)
}

func TestAllocateEqualSplit(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}

	shares, err := Allocate(300, alice, members, nil, models.SplitPolicyEqual, nil)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 100.0, m[alice])
	assert.Equal(t, 100.0, m[bob])
	assert.Equal(t, 100.0, m[carol])
}

func TestAllocateCarveOutThenEqualRemainder(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	carveOuts := map[uuid.UUID]float64{carol: 40}

	shares, err := Allocate(100, alice, members, carveOuts, models.SplitPolicyEqual, nil)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 20.0, m[alice])
	assert.Equal(t, 20.0, m[bob])
	assert.Equal(t, 60.0, m[carol])
	assert.Equal(t, 100.0, sumShares(shares))
}

func TestAllocateRoundingResidualGoesToLastMember(t *testing.T) {
	members := []uuid.UUID{carol, alice, bob} // input order must not matter

	shares, err := Allocate(100, alice, members, nil, models.SplitPolicyEqual, nil)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 33.33, m[alice])
	assert.Equal(t, 33.33, m[bob])
	assert.Equal(t, 33.34, m[carol])
	assert.Equal(t, 100.0, sumShares(shares))
}

func TestAllocateWeightedSplit(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	weights := map[uuid.UUID]float64{alice: 2, bob: 1, carol: 1}

	shares, err := Allocate(100, alice, members, nil, models.SplitPolicyWeight, weights)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 50.0, m[alice])
	assert.Equal(t, 25.0, m[bob])
	assert.Equal(t, 25.0, m[carol])
}

func TestAllocateZeroWeightMemberOwesOnlyCarveOut(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	weights := map[uuid.UUID]float64{alice: 1, bob: 1} // carol: 0
	carveOuts := map[uuid.UUID]float64{carol: 10}

	shares, err := Allocate(110, alice, members, carveOuts, models.SplitPolicyWeight, weights)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 50.0, m[alice])
	assert.Equal(t, 50.0, m[bob])
	assert.Equal(t, 10.0, m[carol])
}

func TestAllocateSingleMemberGetsEverything(t *testing.T) {
	shares, err := Allocate(42.5, alice, []uuid.UUID{alice}, nil, models.SplitPolicyEqual, nil)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, 42.5, shares[0].Amount)
}

func TestAllocateSumAlwaysMatchesTotal(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}

	tests := []struct {
		name      string
		total     float64
		carveOuts map[uuid.UUID]float64
		policy    string
		weights   map[uuid.UUID]float64
	}{
		{"awkward equal", 1280.50, nil, models.SplitPolicyEqual, nil},
		{"tiny amount", 0.01, nil, models.SplitPolicyEqual, nil},
		{"carve plus equal", 999.99, map[uuid.UUID]float64{alice: 123.45}, models.SplitPolicyEqual, nil},
		{"odd weights", 777.77, nil, models.SplitPolicyWeight, map[uuid.UUID]float64{alice: 3, bob: 5, carol: 7}},
		{"carve plus weights", 500, map[uuid.UUID]float64{bob: 99.99}, models.SplitPolicyWeight, map[uuid.UUID]float64{alice: 1, bob: 2, carol: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(tt.total, alice, members, tt.carveOuts, tt.policy, tt.weights)
			require.NoError(t, err)
			assert.Equal(t, utils.RoundToTwo(tt.total), sumShares(shares))
		})
	}
}

func TestAllocateValidationErrors(t *testing.T) {
	members := []uuid.UUID{alice, bob}
	outsider := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	tests := []struct {
		name      string
		total     float64
		payer     uuid.UUID
		members   []uuid.UUID
		carveOuts map[uuid.UUID]float64
		policy    string
		weights   map[uuid.UUID]float64
		wantKind  utils.ErrorKind
	}{
		{"zero total", 0, alice, members, nil, models.SplitPolicyEqual, nil, utils.KindValidation},
		{"negative total", -5, alice, members, nil, models.SplitPolicyEqual, nil, utils.KindValidation},
		{"no members", 100, alice, nil, nil, models.SplitPolicyEqual, nil, utils.KindInvalidAllocation},
		{"payer not a member", 100, outsider, members, nil, models.SplitPolicyEqual, nil, utils.KindInvalidAllocation},
		{"carve-out for non-member", 100, alice, members, map[uuid.UUID]float64{outsider: 10}, models.SplitPolicyEqual, nil, utils.KindInvalidAllocation},
		{"negative carve-out", 100, alice, members, map[uuid.UUID]float64{bob: -1}, models.SplitPolicyEqual, nil, utils.KindInvalidAllocation},
		{"carve-outs exceed total", 100, alice, members, map[uuid.UUID]float64{alice: 60, bob: 50}, models.SplitPolicyEqual, nil, utils.KindInvalidAllocation},
		{"zero weight sum", 100, alice, members, nil, models.SplitPolicyWeight, map[uuid.UUID]float64{}, utils.KindInvalidAllocation},
		{"negative weight", 100, alice, members, nil, models.SplitPolicyWeight, map[uuid.UUID]float64{alice: -1, bob: 3}, utils.KindInvalidAllocation},
		{"unknown policy", 100, alice, members, nil, "Proportional", nil, utils.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.total, tt.payer, tt.members, tt.carveOuts, tt.policy, tt.weights)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantKind, appErr.Kind)
		})
	}
}

func TestSplitSpecFromAllocationsPreservesSplit(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	weights := map[uuid.UUID]float64{alice: 2, bob: 1, carol: 1}
	carveOuts := map[uuid.UUID]float64{carol: 30}

	shares, err := Allocate(130, alice, members, carveOuts, models.SplitPolicyWeight, weights)
	require.NoError(t, err)

	// Persist the recipe on the rows the way the expense handler does
	var rows []models.ExpenseAllocation
	for _, s := range shares {
		rows = append(rows, models.ExpenseAllocation{
			UserID:   s.UserID,
			Amount:   s.Amount,
			CarveOut: carveOuts[s.UserID],
			Weight:   weights[s.UserID],
		})
	}

	// An edit that sends no split inputs re-runs the original split
	spec := SplitSpecFromAllocations(models.SplitPolicyWeight, rows)
	again, err := Allocate(130, alice, members, spec.CarveOuts, spec.Policy, spec.Weights)
	require.NoError(t, err)
	assert.Equal(t, shares, again)

	// Falling back to an equal split would have changed the money
	equal, err := Allocate(130, alice, members, nil, models.SplitPolicyEqual, nil)
	require.NoError(t, err)
	assert.NotEqual(t, shares, equal)
}

func TestSplitSpecFromAllocationsDefaultsToEqual(t *testing.T) {
	rows := []models.ExpenseAllocation{
		{UserID: alice, Amount: 50},
		{UserID: bob, Amount: 50},
	}

	spec := SplitSpecFromAllocations("", rows)
	assert.Equal(t, models.SplitPolicyEqual, spec.Policy)
	assert.Nil(t, spec.CarveOuts)
	assert.Nil(t, spec.Weights)
}

func TestAllocateCarveOutsEqualToTotal(t *testing.T) {
	members := []uuid.UUID{alice, bob}
	carveOuts := map[uuid.UUID]float64{alice: 30, bob: 70}

	shares, err := Allocate(100, alice, members, carveOuts, models.SplitPolicyEqual, nil)
	require.NoError(t, err)

	m := shareMap(shares)
	assert.Equal(t, 30.0, m[alice])
	assert.Equal(t, 70.0, m[bob])
}
