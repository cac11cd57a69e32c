package services

import (
	"testing"
	"time"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingPayment(amount float64) *models.Payment {
	return &models.Payment{
		FromUserID: bob,
		ToUserID:   alice,
		Amount:     amount,
		Method:     models.MethodCash,
		Status:     models.PaymentPending,
	}
}

func TestApprovePaymentOnlyPayee(t *testing.T) {
	payment := pendingPayment(50)

	err := ApprovePayment(payment, nil, bob, time.Now())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindUnauthorized, appErr.Kind)
	assert.Equal(t, models.PaymentPending, payment.Status)
}

func TestApprovePaymentSecondAttemptAlreadyFinalized(t *testing.T) {
	payment := pendingPayment(50)
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ApprovePayment(payment, nil, alice, first))
	assert.Equal(t, models.PaymentApproved, payment.Status)
	require.NotNil(t, payment.ResolvedAt)
	assert.Equal(t, first, *payment.ResolvedAt)

	// Terminal: the retry fails and the original resolution stands
	err := ApprovePayment(payment, nil, alice, first.Add(time.Minute))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindAlreadyFinalized, appErr.Kind)
	assert.Equal(t, models.PaymentApproved, appErr.CurrentState)
	assert.Equal(t, first, *payment.ResolvedAt)
}

func TestApprovePaymentFundsLinkedCycle(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)

	payment := pendingPayment(1000)
	require.NoError(t, ApprovePayment(payment, cycle, alice, time.Now()))

	assert.Equal(t, models.PaymentApproved, payment.Status)
	assert.Equal(t, models.CycleCollecting, cycle.Status)
	assert.Equal(t, 1000.0, cycle.FundedAmount)
}

func TestApprovePaymentOverFundedLeavesPaymentPending(t *testing.T) {
	contract := fixedContract()
	cycle, err := NewCycle(contract, "2026-03", houseMembers, nil)
	require.NoError(t, err)
	require.NoError(t, ApplyFunding(cycle, 2800))

	payment := pendingPayment(500)
	err = ApprovePayment(payment, cycle, alice, time.Now())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindOverFunded, appErr.Kind)

	// The failed approval changes nothing on either side
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Nil(t, payment.ResolvedAt)
	assert.Equal(t, 2800.0, cycle.FundedAmount)
	assert.Equal(t, models.CycleCollecting, cycle.Status)
}

func TestRejectPaymentTerminal(t *testing.T) {
	payment := pendingPayment(75)

	err := RejectPayment(payment, bob, "wrong amount", time.Now())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindUnauthorized, appErr.Kind)

	require.NoError(t, RejectPayment(payment, alice, "wrong amount", time.Now()))
	assert.Equal(t, models.PaymentRejected, payment.Status)
	assert.Equal(t, "wrong amount", payment.RejectReason)

	err = RejectPayment(payment, alice, "again", time.Now())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindAlreadyFinalized, appErr.Kind)

	// A rejected payment cannot be approved either
	err = ApprovePayment(payment, nil, alice, time.Now())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindAlreadyFinalized, appErr.Kind)
	assert.Equal(t, models.PaymentRejected, appErr.CurrentState)
}

func TestValidatePaymentAllocations(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		allocs  []models.PaymentAllocationInput
		wantErr bool
	}{
		{"no allocations", 100, nil, false},
		{"under the amount", 100, []models.PaymentAllocationInput{{Amount: 40}, {Amount: 50}}, false},
		{"exactly the amount", 100, []models.PaymentAllocationInput{{Amount: 60}, {Amount: 40}}, false},
		{"over the amount", 100, []models.PaymentAllocationInput{{Amount: 60}, {Amount: 50}}, true},
		{"non-positive allocation", 100, []models.PaymentAllocationInput{{Amount: 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaymentAllocations(tt.amount, tt.allocs)
			if tt.wantErr {
				var appErr *utils.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, utils.KindValidation, appErr.Kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
