package services

import (
	"testing"

	"houseledger-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairwiseMatrixSkipsPayerOwnShare(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: alice, Amount: 100},
		{PayerID: alice, UserID: bob, Amount: 100},
		{PayerID: alice, UserID: carol, Amount: 100},
	}

	matrix := PairwiseMatrix(allocs, nil)

	assert.Equal(t, 100.0, matrix[alice][bob])
	assert.Equal(t, 100.0, matrix[alice][carol])
	assert.Zero(t, matrix[alice][alice])
}

func TestPairwiseMatrixIsAntisymmetric(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: bob, Amount: 60},
		{PayerID: bob, UserID: carol, Amount: 25},
		{PayerID: carol, UserID: alice, Amount: 10},
	}
	payments := []PaymentEntry{
		{FromUserID: bob, ToUserID: alice, Amount: 20},
	}

	matrix := PairwiseMatrix(allocs, payments)

	for a, row := range matrix {
		for b, amount := range row {
			assert.Equal(t, -amount, matrix[b][a], "matrix[%s][%s] must mirror matrix[%s][%s]", a, b, b, a)
		}
	}
}

func TestNetBalancesOrderIndependent(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: bob, Amount: 100},
		{PayerID: bob, UserID: carol, Amount: 40},
		{PayerID: carol, UserID: alice, Amount: 15.5},
		{PayerID: alice, UserID: carol, Amount: 33.33},
	}
	payments := []PaymentEntry{
		{FromUserID: bob, ToUserID: alice, Amount: 50},
		{FromUserID: carol, ToUserID: alice, Amount: 10},
	}

	forward := NetBalances(allocs, payments)

	reversedAllocs := make([]AllocationEntry, 0, len(allocs))
	for i := len(allocs) - 1; i >= 0; i-- {
		reversedAllocs = append(reversedAllocs, allocs[i])
	}
	reversedPayments := make([]PaymentEntry, 0, len(payments))
	for i := len(payments) - 1; i >= 0; i-- {
		reversedPayments = append(reversedPayments, payments[i])
	}

	backward := NetBalances(reversedAllocs, reversedPayments)

	assert.Equal(t, forward, backward)
}

func TestNetBalancesSumToZero(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: bob, Amount: 33.33},
		{PayerID: alice, UserID: carol, Amount: 33.34},
		{PayerID: bob, UserID: alice, Amount: 12.5},
		{PayerID: bob, UserID: carol, Amount: 12.5},
	}
	payments := []PaymentEntry{
		{FromUserID: carol, ToUserID: alice, Amount: 20},
	}

	net := NetBalances(allocs, payments)

	var sum float64
	for _, amount := range net {
		sum += amount
	}
	assert.InDelta(t, 0, sum, 0.011)
}

func TestApprovedPaymentReducesDebt(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: bob, Amount: 100},
	}

	before := PairwiseFor(bob, allocs, nil)
	require.Equal(t, -100.0, before[alice])

	payments := []PaymentEntry{
		{FromUserID: bob, ToUserID: alice, Amount: 60},
	}
	after := PairwiseFor(bob, allocs, payments)
	assert.Equal(t, -40.0, after[alice])
}

func TestPairwiseForDropsSettledCounterparts(t *testing.T) {
	allocs := []AllocationEntry{
		{PayerID: alice, UserID: bob, Amount: 50},
	}
	payments := []PaymentEntry{
		{FromUserID: bob, ToUserID: alice, Amount: 50},
	}

	pairwise := PairwiseFor(bob, allocs, payments)
	assert.Empty(t, pairwise)
}

func TestSimplifyDebtsSettlesEveryone(t *testing.T) {
	net := map[uuid.UUID]float64{
		alice: 90,
		bob:   -40,
		carol: -50,
	}

	transfers := SimplifyDebts(net)
	require.Len(t, transfers, 2)

	// Transfers must zero the graph out
	remaining := map[uuid.UUID]float64{}
	for id, amount := range net {
		remaining[id] = amount
	}
	for _, tr := range transfers {
		assert.Greater(t, tr.Amount, 0.0)
		remaining[tr.FromUserID] = utils.RoundToTwo(remaining[tr.FromUserID] + tr.Amount)
		remaining[tr.ToUserID] = utils.RoundToTwo(remaining[tr.ToUserID] - tr.Amount)
	}
	for id, amount := range remaining {
		assert.InDelta(t, 0, amount, 0.011, "user %s not settled", id)
	}
}

func TestSimplifyDebtsIgnoresDust(t *testing.T) {
	net := map[uuid.UUID]float64{
		alice: 0.005,
		bob:   -0.005,
	}

	assert.Empty(t, SimplifyDebts(net))
}

func TestSimplifyDebtsDeterministic(t *testing.T) {
	net := map[uuid.UUID]float64{
		alice: 30,
		bob:   30,
		carol: -60,
	}

	first := SimplifyDebts(net)
	second := SimplifyDebts(net)
	assert.Equal(t, first, second)

	// Ascending ID order: carol pays alice before bob
	require.Len(t, first, 2)
	assert.Equal(t, alice, first[0].ToUserID)
	assert.Equal(t, bob, first[1].ToUserID)
}
