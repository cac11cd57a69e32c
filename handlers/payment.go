package handlers

import (
	"fmt"
	"net/http"
	"time"

	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// POST /api/houses/:id/payments
func CreatePayment(c *gin.Context) {
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

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	fromUserID, err := uuid.Parse(req.FromUserID)
	if err != nil {
		utils.BadRequest(c, "Invalid from user ID")
		return
	}
	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		utils.BadRequest(c, "Invalid to user ID")
		return
	}

	if req.Amount <= 0 {
		utils.RespondError(c, utils.Validationf("payment amount must be positive, got %.2f", req.Amount))
		return
	}
	if fromUserID == toUserID {
		utils.RespondError(c, utils.Validationf("payer and payee cannot be the same member"))
		return
	}
	if !isMember(houseID, fromUserID) || !isMember(houseID, toUserID) {
		utils.RespondError(c, utils.Validationf("both members must belong to the house"))
		return
	}
	if req.Method == models.MethodBankTransfer && req.ReceiptURL == "" {
		utils.RespondError(c, utils.Validationf("bank transfer payments require a receipt"))
		return
	}
	if err := services.ValidatePaymentAllocations(req.Amount, req.Allocations); err != nil {
		utils.RespondError(c, err)
		return
	}

	payment := models.Payment{
		HouseID:    houseID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     req.Amount,
		Method:     req.Method,
		Note:       req.Note,
		Status:     models.PaymentPending,
		ReceiptURL: req.ReceiptURL,
	}

	if req.ChargeID != "" {
		chargeID, err := uuid.Parse(req.ChargeID)
		if err != nil {
			utils.BadRequest(c, "Invalid charge ID")
			return
		}
		var cycle models.ChargeCycle
		if err := database.DB.First(&cycle, chargeID).Error; err != nil || cycle.HouseID != houseID {
			utils.NotFound(c, "Charge cycle not found")
			return
		}
		payment.ChargeID = &chargeID
	}

	// Payment and its expense allocations are one atomic write
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		for _, input := range req.Allocations {
			alloc := models.PaymentAllocation{
				PaymentID: payment.ID,
				Amount:    input.Amount,
			}
			if input.ExpenseID != "" {
				expenseID, err := uuid.Parse(input.ExpenseID)
				if err != nil {
					return utils.Validationf("invalid expense ID in allocations: %s", input.ExpenseID)
				}
				alloc.ExpenseID = &expenseID
			}
			if err := tx.Create(&alloc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var payer, payee models.User
	database.DB.First(&payer, fromUserID)
	database.DB.First(&payee, toUserID)
	var house models.House
	database.DB.First(&house, houseID)

	database.DB.Create(&models.Activity{
		HouseID:     houseID,
		UserID:      userID,
		Type:        "payment_created",
		ReferenceID: payment.ID,
		Description: fmt.Sprintf("%s recorded a payment of %.2f to %s", payer.FullName, payment.Amount, payee.FullName),
	})

	go services.GetNotificationService().NotifyPaymentCreated(payment, payer, payee, house)

	utils.SuccessResponse(c, http.StatusCreated, "Payment recorded", payment)
}

// GET /api/houses/:id/payments
func GetHousePayments(c *gin.Context) {
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

	query := database.DB.Where("house_id = ?", houseID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []models.Payment
	query.Preload("FromUser").Preload("ToUser").
		Order("created_at DESC").
		Find(&payments)

	utils.SuccessResponse(c, http.StatusOK, "", payments)
}

// GET /api/payments/pending — payments waiting for the caller's approval
func GetPendingPayments(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var payments []models.Payment
	database.DB.Where("to_user_id = ? AND status = ?", userID, models.PaymentPending).
		Preload("FromUser").
		Order("created_at DESC").
		Find(&payments)

	utils.SuccessResponse(c, http.StatusOK, "", payments)
}

// POST /api/payments/:id/approve
//
// Approval and the cycle funding increment are one transaction: if the
// funding would overshoot the cycle total, the whole approval rolls back and
// the payment stays Pending for the approver to reconsider.
func ApprovePayment(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid payment ID")
		return
	}

	var payment models.Payment
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		// Row lock: of two racing approvals exactly one wins, the other
		// observes the terminal state
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, paymentID).Error; err != nil {
			return utils.NotFoundf("payment not found")
		}

		var cycle *models.ChargeCycle
		if payment.ChargeID != nil {
			cycle = &models.ChargeCycle{}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(cycle, *payment.ChargeID).Error; err != nil {
				return utils.NotFoundf("charge cycle not found")
			}
		}

		if err := services.ApprovePayment(&payment, cycle, userID, time.Now()); err != nil {
			return err
		}

		if cycle != nil {
			if err := tx.Save(cycle).Error; err != nil {
				return err
			}
		}
		return tx.Save(&payment).Error
	})
	if txErr != nil {
		utils.RespondError(c, txErr)
		return
	}

	database.InvalidateHouseBalances(payment.HouseID)

	var payer, payee models.User
	database.DB.First(&payer, payment.FromUserID)
	database.DB.First(&payee, payment.ToUserID)
	var house models.House
	database.DB.First(&house, payment.HouseID)

	database.DB.Create(&models.Activity{
		HouseID:     payment.HouseID,
		UserID:      userID,
		Type:        "payment_approved",
		ReferenceID: payment.ID,
		Description: fmt.Sprintf("%s approved a payment of %.2f from %s", payee.FullName, payment.Amount, payer.FullName),
	})

	go services.GetNotificationService().NotifyPaymentResolved(payment, payer, payee, house)

	utils.SuccessResponse(c, http.StatusOK, "Payment approved", payment)
}

// POST /api/payments/:id/reject
func RejectPayment(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid payment ID")
		return
	}

	var req models.RejectPaymentRequest
	c.ShouldBindJSON(&req)

	var payment models.Payment
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, paymentID).Error; err != nil {
			return utils.NotFoundf("payment not found")
		}
		if err := services.RejectPayment(&payment, userID, req.Reason, time.Now()); err != nil {
			return err
		}
		return tx.Save(&payment).Error
	})
	if txErr != nil {
		utils.RespondError(c, txErr)
		return
	}

	var payer, payee models.User
	database.DB.First(&payer, payment.FromUserID)
	database.DB.First(&payee, payment.ToUserID)
	var house models.House
	database.DB.First(&house, payment.HouseID)

	database.DB.Create(&models.Activity{
		HouseID:     payment.HouseID,
		UserID:      userID,
		Type:        "payment_rejected",
		ReferenceID: payment.ID,
		Description: fmt.Sprintf("%s rejected a payment of %.2f from %s", payee.FullName, payment.Amount, payer.FullName),
	})

	go services.GetNotificationService().NotifyPaymentResolved(payment, payer, payee, house)

	utils.SuccessResponse(c, http.StatusOK, "Payment rejected", payment)
}
