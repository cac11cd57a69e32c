package services

import (
	"testing"
	"time"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedContract() models.ChargeContract {
	return models.ChargeContract{
		ID:                uuid.New(),
		HouseID:           uuid.New(),
		Type:              "rent",
		PayerUserID:       alice,
		AmountMode:        models.AmountModeFixed,
		SplitPolicy:       models.SplitPolicyEqual,
		FixedAmount:       3000,
		DueDay:            5,
		PaymentWindowDays: 10,
		StartMonth:        "2026-01",
		IsActive:          true,
	}
}

func variableContract() models.ChargeContract {
	c := fixedContract()
	c.Type = "electric"
	c.AmountMode = models.AmountModeVariable
	c.FixedAmount = 0
	return c
}

var houseMembers = []uuid.UUID{alice, bob, carol}

func TestNewCycleFixedStartsOpenWithShares(t *testing.T) {
	contract := fixedContract()

	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CycleOpen, cycle.Status)
	assert.Equal(t, 3000.0, cycle.TotalAmount)
	assert.Zero(t, cycle.FundedAmount)
	require.Len(t, cycle.Shares, 3)

	var sum float64
	for _, s := range cycle.Shares {
		sum += s.Amount
	}
	assert.Equal(t, 3000.0, utils.RoundToTwo(sum))

	// Due date is the contract's due day plus the payment window
	require.NotNil(t, cycle.DueDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *cycle.DueDate)
}

func TestNewCycleVariableStartsAwaitingBill(t *testing.T) {
	contract := variableContract()

	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CycleAwaitingBill, cycle.Status)
	assert.Zero(t, cycle.TotalAmount)
	assert.Empty(t, cycle.Shares)
	assert.Nil(t, cycle.DueDate)
}

func TestNewCycleRejectsPeriodBeforeStartMonth(t *testing.T) {
	contract := fixedContract()

	_, err := NewCycle(contract, "2025-12", houseMembers, nil)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestNewCycleRejectsBadPeriod(t *testing.T) {
	contract := fixedContract()

	_, err := NewCycle(contract, "March 2026", houseMembers, nil)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestSetCycleBillOpensAwaitingCycle(t *testing.T) {
	contract := variableContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	billDate := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	err = SetCycleBill(cycle, contract, houseMembers, nil, billDate, 1280.50, "https://docs/bill.pdf")
	require.NoError(t, err)

	assert.Equal(t, models.CycleOpen, cycle.Status)
	assert.Equal(t, 1280.50, cycle.TotalAmount)
	require.Len(t, cycle.Shares, 3)

	amounts := make(map[uuid.UUID]float64)
	var sum float64
	for _, s := range cycle.Shares {
		amounts[s.UserID] = s.Amount
		sum += s.Amount
	}
	assert.Equal(t, 426.83, amounts[alice])
	assert.Equal(t, 426.83, amounts[bob])
	assert.Equal(t, 426.84, amounts[carol])
	assert.Equal(t, 1280.50, utils.RoundToTwo(sum))

	// Due date counts from the bill date, not the contract's due day
	require.NotNil(t, cycle.DueDate)
	assert.Equal(t, billDate.AddDate(0, 0, 10), *cycle.DueDate)
}

func TestSetCycleBillOnlyOnAwaitingBill(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	err = SetCycleBill(cycle, contract, houseMembers, nil, time.Now(), 500, "")
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindInvalidState, appErr.Kind)
	assert.Equal(t, models.CycleOpen, appErr.CurrentState)
}

func TestApplyFundingProgression(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	require.NoError(t, ApplyFunding(cycle, 1000))
	assert.Equal(t, models.CycleCollecting, cycle.Status)
	assert.Equal(t, 1000.0, cycle.FundedAmount)

	require.NoError(t, ApplyFunding(cycle, 1000))
	assert.Equal(t, models.CycleCollecting, cycle.Status)
	assert.Equal(t, 2000.0, cycle.FundedAmount)

	require.NoError(t, ApplyFunding(cycle, 1000))
	assert.Equal(t, models.CycleFunded, cycle.Status)
	assert.Equal(t, 3000.0, cycle.FundedAmount)
}

func TestApplyFundingRejectsOverFunding(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)
	require.NoError(t, ApplyFunding(cycle, 2800))

	err = ApplyFunding(cycle, 500)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindOverFunded, appErr.Kind)

	// Rejected funding leaves the cycle untouched
	assert.Equal(t, 2800.0, cycle.FundedAmount)
	assert.Equal(t, models.CycleCollecting, cycle.Status)
}

func TestApplyFundingStateGuards(t *testing.T) {
	contract := variableContract()
	awaiting, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	err = ApplyFunding(awaiting, 100)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindInvalidState, appErr.Kind)

	paid := &models.ChargeCycle{Status: models.CyclePaid, TotalAmount: 100, FundedAmount: 100}
	err = ApplyFunding(paid, 10)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindInvalidState, appErr.Kind)

	open := &models.ChargeCycle{Status: models.CycleOpen, TotalAmount: 100}
	err = ApplyFunding(open, -5)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestMarkCyclePaidLifecycle(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	paidDate := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	// Not funded yet
	err = MarkCyclePaid(cycle, alice, paidDate, "")
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindInvalidState, appErr.Kind)

	require.NoError(t, ApplyFunding(cycle, 3000))

	// Only the contract payer may mark paid
	err = MarkCyclePaid(cycle, bob, paidDate, "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindUnauthorized, appErr.Kind)

	require.NoError(t, MarkCyclePaid(cycle, alice, paidDate, "https://docs/receipt.pdf"))
	assert.Equal(t, models.CyclePaid, cycle.Status)
	require.NotNil(t, cycle.PaidDate)
	assert.Equal(t, paidDate, *cycle.PaidDate)

	// Second attempt observes the terminal state
	err = MarkCyclePaid(cycle, alice, paidDate, "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindAlreadyFinalized, appErr.Kind)
	assert.Equal(t, models.CyclePaid, appErr.CurrentState)
}

func TestIsCycleOverdueAdvisory(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	collecting := models.ChargeCycle{Status: models.CycleCollecting, DueDate: &due}
	assert.False(t, IsCycleOverdue(collecting, due.AddDate(0, 0, -1)))
	assert.True(t, IsCycleOverdue(collecting, due.AddDate(0, 0, 1)))

	// Funded cycles past the window still read overdue until paid out
	funded := models.ChargeCycle{Status: models.CycleFunded, DueDate: &due}
	assert.True(t, IsCycleOverdue(funded, due.AddDate(0, 0, 1)))

	paid := models.ChargeCycle{Status: models.CyclePaid, DueDate: &due}
	assert.False(t, IsCycleOverdue(paid, due.AddDate(0, 0, 30)))

	noDue := models.ChargeCycle{Status: models.CycleAwaitingBill}
	assert.False(t, IsCycleOverdue(noDue, due))
}
