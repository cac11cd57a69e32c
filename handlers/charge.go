package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pqUniqueViolation = "23505"

// POST /api/houses/:id/charges — create a recurring charge contract
func CreateRecurringCharge(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	houseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid house ID")
		return
	}

	if !isMember(houseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}

	var req models.CreateRecurringChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerUserID)
	if err != nil {
		utils.BadRequest(c, "Invalid payer user ID")
		return
	}
	if !isMember(houseID, payerID) {
		utils.RespondError(c, utils.Validationf("payer is not a member of the house"))
		return
	}
	if req.AmountMode == models.AmountModeFixed && req.FixedAmount <= 0 {
		utils.RespondError(c, utils.Validationf("fixed amount mode requires a positive fixed amount"))
		return
	}
	if req.SplitPolicy == models.SplitPolicyWeight && len(req.Weights) == 0 {
		utils.RespondError(c, utils.Validationf("weight split policy requires weights"))
		return
	}
	if _, err := services.ParsePeriod(req.StartMonth); err != nil {
		utils.RespondError(c, err)
		return
	}

	contract := models.ChargeContract{
		HouseID:           houseID,
		Type:              req.Type,
		PayerUserID:       payerID,
		AmountMode:        req.AmountMode,
		SplitPolicy:       req.SplitPolicy,
		FixedAmount:       req.FixedAmount,
		DueDay:            req.DueDay,
		PaymentWindowDays: req.PaymentWindowDays,
		StartMonth:        req.StartMonth,
		IsActive:          true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		for userIDStr, weight := range req.Weights {
			memberID, err := uuid.Parse(userIDStr)
			if err != nil {
				return utils.Validationf("invalid user ID in weights: %s", userIDStr)
			}
			if !isMember(houseID, memberID) {
				return utils.Validationf("weight refers to non-member %s", userIDStr)
			}
			if weight < 0 {
				return utils.InvalidAllocationf("weight for member %s cannot be negative", userIDStr)
			}
			if err := tx.Create(&models.ChargeWeight{ContractID: contract.ID, UserID: memberID, Weight: weight}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Recurring charge created", contract)
}

// GET /api/houses/:id/charges?period=YYYY-MM — cycles for one billing period.
// Cycles for active contracts are generated on first read of the period.
func ListCharges(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	houseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid house ID")
		return
	}

	if !isMember(houseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}

	period := c.Query("period")
	if period == "" {
		period = time.Now().Format("2006-01")
	}
	if _, err := services.ParsePeriod(period); err != nil {
		utils.RespondError(c, err)
		return
	}

	var contracts []models.ChargeContract
	database.DB.Where("house_id = ? AND is_active = ?", houseID, true).Find(&contracts)

	var responses []models.ChargeCycleResponse
	now := time.Now()
	for _, contract := range contracts {
		if period < contract.StartMonth {
			continue
		}

		var cycle models.ChargeCycle
		err := database.DB.Preload("Shares").
			Where("contract_id = ? AND period = ?", contract.ID, period).
			First(&cycle).Error
		if err != nil {
			created, err := generateCycle(contract, period)
			if err != nil {
				// Racing generation: someone else created it first, reload
				var appErr *utils.AppError
				if errors.As(err, &appErr) && appErr.Kind == utils.KindDuplicateCycle {
					database.DB.Preload("Shares").
						Where("contract_id = ? AND period = ?", contract.ID, period).
						First(&cycle)
				} else {
					utils.RespondError(c, err)
					return
				}
			} else {
				cycle = *created
			}
		}

		responses = append(responses, buildCycleResponse(cycle, now))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// POST /api/charges/:id/cycles — explicitly generate the cycle for a period
func GenerateCycle(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid contract ID")
		return
	}

	var contract models.ChargeContract
	if err := database.DB.First(&contract, contractID).Error; err != nil {
		utils.NotFound(c, "Recurring charge not found")
		return
	}

	if !isMember(contract.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if !contract.IsActive {
		utils.RespondError(c, utils.InvalidStatef("Inactive", "contract is deactivated"))
		return
	}

	var req struct {
		Period string `json:"period" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	cycle, err := generateCycle(contract, req.Period)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Cycle created", buildCycleResponse(*cycle, time.Now()))
}

// PUT /api/charges/:id/deactivate
func DeactivateCharge(c *gin.Context) {
	setChargeActive(c, false)
}

// PUT /api/charges/:id/activate
func ActivateCharge(c *gin.Context) {
	setChargeActive(c, true)
}

func setChargeActive(c *gin.Context, active bool) {
	userID := utils.GetCurrentUserID(c)
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid contract ID")
		return
	}

	var contract models.ChargeContract
	if err := database.DB.First(&contract, contractID).Error; err != nil {
		utils.NotFound(c, "Recurring charge not found")
		return
	}

	if contract.PayerUserID != userID && !isHouseCreator(contract.HouseID, userID) {
		utils.Forbidden(c, "Only the contract payer or the house creator can change a contract")
		return
	}

	database.DB.Model(&contract).Update("is_active", active)

	utils.SuccessResponse(c, http.StatusOK, "Contract updated", contract)
}

// POST /api/charges/cycles/:id/bill — record the provider bill on a
// variable-amount cycle (AwaitingBill -> Open)
func SetCycleBill(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid cycle ID")
		return
	}

	var req models.SetCycleBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	billDate, err := time.Parse("2006-01-02", req.BillDate)
	if err != nil {
		utils.BadRequest(c, "Invalid bill date, expected YYYY-MM-DD")
		return
	}

	var cycle models.ChargeCycle
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		// Row lock: of two racing setBill calls exactly one transitions
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cycle, cycleID).Error; err != nil {
			return utils.NotFoundf("charge cycle not found")
		}
		if !isMember(cycle.HouseID, userID) {
			return utils.NotFoundf("charge cycle not found")
		}

		var contract models.ChargeContract
		if err := tx.First(&contract, cycle.ContractID).Error; err != nil {
			return utils.NotFoundf("recurring charge not found")
		}

		memberIDs := houseMemberIDs(cycle.HouseID)
		weights := contractWeights(contract.ID)
		if err := services.SetCycleBill(&cycle, contract, memberIDs, weights, billDate, req.TotalAmount, req.BillDocumentURL); err != nil {
			return err
		}

		if err := tx.Where("cycle_id = ?", cycle.ID).Delete(&models.ChargeShare{}).Error; err != nil {
			return err
		}
		for i := range cycle.Shares {
			if err := tx.Create(&cycle.Shares[i]).Error; err != nil {
				return err
			}
		}
		return tx.Omit("Shares").Save(&cycle).Error
	})
	if txErr != nil {
		utils.RespondError(c, txErr)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bill recorded", buildCycleResponse(cycle, time.Now()))
}

// POST /api/charges/cycles/:id/paid — payer asserts the collected funds were
// forwarded to the external party (Funded -> Paid)
func MarkCyclePaid(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid cycle ID")
		return
	}

	var req models.MarkCyclePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	paidDate, err := time.Parse("2006-01-02", req.PaidDate)
	if err != nil {
		utils.BadRequest(c, "Invalid paid date, expected YYYY-MM-DD")
		return
	}

	var cycle models.ChargeCycle
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cycle, cycleID).Error; err != nil {
			return utils.NotFoundf("charge cycle not found")
		}
		if !isMember(cycle.HouseID, userID) {
			return utils.NotFoundf("charge cycle not found")
		}

		if err := services.MarkCyclePaid(&cycle, userID, paidDate, req.ExternalReceiptURL); err != nil {
			return err
		}
		return tx.Save(&cycle).Error
	})
	if txErr != nil {
		utils.RespondError(c, txErr)
		return
	}

	var payer models.User
	database.DB.First(&payer, cycle.PayerUserID)
	database.DB.Create(&models.Activity{
		HouseID:     cycle.HouseID,
		UserID:      userID,
		Type:        "cycle_paid",
		ReferenceID: cycle.ID,
		Description: fmt.Sprintf("%s paid out the %s charge for %s (%.2f)", payer.FullName, cycle.Type, cycle.Period, cycle.TotalAmount),
	})

	utils.SuccessResponse(c, http.StatusOK, "Cycle marked as paid", buildCycleResponse(cycle, time.Now()))
}

// generateCycle creates the single cycle for (contract, period). The unique
// index on (contract_id, period) backs the one-cycle-per-period guarantee.
func generateCycle(contract models.ChargeContract, period string) (*models.ChargeCycle, error) {
	memberIDs := houseMemberIDs(contract.HouseID)
	weights := contractWeights(contract.ID)

	cycle, err := services.NewCycle(contract, period, memberIDs, weights)
	if err != nil {
		return nil, err
	}

	if err := database.DB.Create(cycle).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, utils.DuplicateCyclef("a cycle already exists for this charge in period %s", period)
		}
		return nil, err
	}
	return cycle, nil
}

func contractWeights(contractID uuid.UUID) map[uuid.UUID]float64 {
	var rows []models.ChargeWeight
	database.DB.Where("contract_id = ?", contractID).Find(&rows)

	weights := make(map[uuid.UUID]float64, len(rows))
	for _, row := range rows {
		weights[row.UserID] = row.Weight
	}
	return weights
}

func buildCycleResponse(cycle models.ChargeCycle, now time.Time) models.ChargeCycleResponse {
	var payer models.User
	database.DB.First(&payer, cycle.PayerUserID)

	var shares []models.AllocationResponse
	for _, s := range cycle.Shares {
		var user models.User
		database.DB.First(&user, s.UserID)
		shares = append(shares, models.AllocationResponse{
			UserID:   s.UserID,
			UserName: user.FullName,
			Amount:   s.Amount,
		})
	}

	return models.ChargeCycleResponse{
		ID:            cycle.ID,
		ContractID:    cycle.ContractID,
		Period:        cycle.Period,
		PayerUserID:   cycle.PayerUserID,
		PayerUserName: payer.FullName,
		Type:          cycle.Type,
		AmountMode:    cycle.AmountMode,
		TotalAmount:   cycle.TotalAmount,
		FundedAmount:  cycle.FundedAmount,
		Status:        cycle.Status,
		IsOverdue:     services.IsCycleOverdue(cycle, now),
		BillDate:      cycle.BillDate,
		DueDate:       cycle.DueDate,
		PerUserShares: shares,
	}
}
