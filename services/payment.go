package services

import (
	"time"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/google/uuid"
)

// ValidatePaymentAllocations checks that the informational expense allocations
// attached to a payment never claim more money than the payment carries.
func ValidatePaymentAllocations(amount float64, allocs []models.PaymentAllocationInput) error {
	var sum float64
	for _, a := range allocs {
		if a.Amount <= 0 {
			return utils.Validationf("payment allocation amounts must be positive, got %.2f", a.Amount)
		}
		sum += a.Amount
	}
	if sum > amount+0.005 {
		return utils.Validationf("payment allocations (%.2f) exceed the payment amount (%.2f)", sum, amount)
	}
	return nil
}

// ApprovePayment is the payee's Pending -> Approved transition. Approved is
// terminal: a second attempt observes AlreadyFinalized, so the ledger effect
// lands at most once. When the payment funds a charge cycle the funding is
// applied here too, so an OverFunded cycle rejects the whole approval and the
// payment stays Pending.
func ApprovePayment(payment *models.Payment, cycle *models.ChargeCycle, callerID uuid.UUID, now time.Time) error {
	if payment.ToUserID != callerID {
		return utils.Unauthorizedf("only the payee can approve a payment")
	}
	if payment.Status != models.PaymentPending {
		return utils.AlreadyFinalizedf(payment.Status, "payment is already %s", payment.Status)
	}

	if cycle != nil {
		if err := ApplyFunding(cycle, payment.Amount); err != nil {
			return err
		}
	}

	payment.Status = models.PaymentApproved
	payment.ResolvedAt = &now
	return nil
}

// RejectPayment is the payee's Pending -> Rejected transition. Rejected is
// terminal and never touches the ledger or any cycle.
func RejectPayment(payment *models.Payment, callerID uuid.UUID, reason string, now time.Time) error {
	if payment.ToUserID != callerID {
		return utils.Unauthorizedf("only the payee can reject a payment")
	}
	if payment.Status != models.PaymentPending {
		return utils.AlreadyFinalizedf(payment.Status, "payment is already %s", payment.Status)
	}

	payment.Status = models.PaymentRejected
	payment.RejectReason = reason
	payment.ResolvedAt = &now
	return nil
}
