package services

import (
	"time"

	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/google/uuid"
)

// ParsePeriod parses a YYYY-MM billing period into the first day of that month.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, utils.Validationf("invalid period %q, expected YYYY-MM", period)
	}
	return t, nil
}

// cycleDueDate is the contract's due day within the period plus the payment
// window.
func cycleDueDate(contract models.ChargeContract, periodStart time.Time) time.Time {
	due := time.Date(periodStart.Year(), periodStart.Month(), contract.DueDay, 0, 0, 0, 0, time.UTC)
	return due.AddDate(0, 0, contract.PaymentWindowDays)
}

// NewCycle builds the single cycle for (contract, period). Fixed-amount
// contracts know their total up front: the cycle starts Open with shares
// precomputed. Variable contracts wait for the provider bill and start
// AwaitingBill with no total and no shares.
func NewCycle(contract models.ChargeContract, period string, memberIDs []uuid.UUID, weights map[uuid.UUID]float64) (*models.ChargeCycle, error) {
	periodStart, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if period < contract.StartMonth {
		return nil, utils.Validationf("period %s is before the contract start month %s", period, contract.StartMonth)
	}

	cycle := &models.ChargeCycle{
		ContractID:  contract.ID,
		HouseID:     contract.HouseID,
		Period:      period,
		PayerUserID: contract.PayerUserID,
		Type:        contract.Type,
		AmountMode:  contract.AmountMode,
	}

	if contract.AmountMode == models.AmountModeVariable {
		cycle.Status = models.CycleAwaitingBill
		return cycle, nil
	}

	shares, err := Allocate(contract.FixedAmount, contract.PayerUserID, memberIDs, nil, contract.SplitPolicy, weights)
	if err != nil {
		return nil, err
	}

	cycle.Status = models.CycleOpen
	cycle.TotalAmount = contract.FixedAmount
	due := cycleDueDate(contract, periodStart)
	cycle.DueDate = &due
	for _, s := range shares {
		cycle.Shares = append(cycle.Shares, models.ChargeShare{UserID: s.UserID, Amount: s.Amount})
	}
	return cycle, nil
}

// SetCycleBill records the provider bill on an AwaitingBill cycle: it fixes
// the total, computes the per-user shares and opens the cycle for payments.
func SetCycleBill(cycle *models.ChargeCycle, contract models.ChargeContract, memberIDs []uuid.UUID, weights map[uuid.UUID]float64, billDate time.Time, totalAmount float64, documentURL string) error {
	if cycle.Status != models.CycleAwaitingBill {
		return utils.InvalidStatef(cycle.Status, "bill can only be set on an AwaitingBill cycle, current status is %s", cycle.Status)
	}
	if totalAmount <= 0 {
		return utils.Validationf("bill total must be positive, got %.2f", totalAmount)
	}

	shares, err := Allocate(totalAmount, cycle.PayerUserID, memberIDs, nil, contract.SplitPolicy, weights)
	if err != nil {
		return err
	}

	cycle.TotalAmount = totalAmount
	cycle.BillDate = &billDate
	cycle.BillDocumentURL = documentURL
	due := billDate.AddDate(0, 0, contract.PaymentWindowDays)
	cycle.DueDate = &due
	cycle.Status = models.CycleOpen
	cycle.Shares = nil
	for _, s := range shares {
		cycle.Shares = append(cycle.Shares, models.ChargeShare{CycleID: cycle.ID, UserID: s.UserID, Amount: s.Amount})
	}
	return nil
}

// ApplyFunding credits an approved payment toward the cycle. The funded
// amount only ever grows, and never past the total: an approval that would
// overshoot fails with OverFunded so the approver can split or reject it.
// Funding moves Open -> Collecting, and Collecting/Open -> Funded once the
// total is reached.
func ApplyFunding(cycle *models.ChargeCycle, amount float64) error {
	if amount <= 0 {
		return utils.Validationf("funding amount must be positive, got %.2f", amount)
	}
	switch cycle.Status {
	case models.CycleAwaitingBill:
		return utils.InvalidStatef(cycle.Status, "cycle has no bill amount yet")
	case models.CyclePaid:
		return utils.InvalidStatef(cycle.Status, "cycle is already paid out")
	}
	if cycle.FundedAmount+amount > cycle.TotalAmount+0.005 {
		return utils.OverFundedf("approving %.2f would fund the cycle to %.2f, over its total %.2f",
			amount, cycle.FundedAmount+amount, cycle.TotalAmount)
	}

	cycle.FundedAmount = utils.RoundToTwo(cycle.FundedAmount + amount)
	if cycle.FundedAmount >= cycle.TotalAmount-0.005 {
		cycle.Status = models.CycleFunded
	} else {
		cycle.Status = models.CycleCollecting
	}
	return nil
}

// MarkCyclePaid is the contract payer's assertion that the collected funds
// were forwarded to the external party. Only legal once fully funded.
func MarkCyclePaid(cycle *models.ChargeCycle, callerID uuid.UUID, paidDate time.Time, receiptURL string) error {
	if callerID != cycle.PayerUserID {
		return utils.Unauthorizedf("only the contract payer can mark the cycle as paid")
	}
	if cycle.Status == models.CyclePaid {
		return utils.AlreadyFinalizedf(cycle.Status, "cycle is already marked as paid")
	}
	if cycle.Status != models.CycleFunded || cycle.FundedAmount < cycle.TotalAmount-0.005 {
		return utils.InvalidStatef(cycle.Status, "cycle is funded %.2f of %.2f and cannot be marked paid",
			cycle.FundedAmount, cycle.TotalAmount)
	}

	cycle.PaidDate = &paidDate
	cycle.ExternalReceiptURL = receiptURL
	cycle.Status = models.CyclePaid
	return nil
}

// IsCycleOverdue reports the advisory overdue flag: past the due date
// without reaching Paid. It co-exists with the stored status.
func IsCycleOverdue(cycle models.ChargeCycle, now time.Time) bool {
	if cycle.DueDate == nil || cycle.Status == models.CyclePaid {
		return false
	}
	return now.After(*cycle.DueDate)
}
