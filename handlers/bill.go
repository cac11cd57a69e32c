package handlers

import (
	"fmt"
	"net/http"
	"time"

	"houseledger-backend/config"
	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// POST /api/houses/:id/bills
func CreateBill(c *gin.Context) {
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

	var req models.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	responsibleID, err := uuid.Parse(req.ResponsibleUserID)
	if err != nil {
		utils.BadRequest(c, "Invalid responsible user ID")
		return
	}
	if !isMember(houseID, responsibleID) {
		utils.BadRequest(c, "Responsible user is not a member of this house")
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		utils.BadRequest(c, "Invalid due date, expected YYYY-MM-DD")
		return
	}

	bill := models.Bill{
		HouseID:           houseID,
		Title:             req.Title,
		UtilityType:       req.UtilityType,
		Amount:            req.Amount,
		Currency:          config.AppConfig.Currency,
		DueDate:           dueDate,
		ResponsibleUserID: responsibleID,
		Description:       req.Description,
	}

	if err := database.DB.Create(&bill).Error; err != nil {
		utils.InternalError(c, "Failed to create bill")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Bill created", bill)
}

// GET /api/houses/:id/bills — the single stable bill listing route
func GetHouseBills(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	query := database.DB.Where("house_id = ?", houseID)
	if utilityType := c.Query("utilityType"); utilityType != "" {
		query = query.Where("utility_type = ?", utilityType)
	}

	var bills []models.Bill
	query.Preload("Responsible").
		Order("due_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&bills)

	utils.SuccessResponse(c, http.StatusOK, "", bills)
}

// GET /api/bills/:id
func GetBill(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.Preload("Allocations").Preload("Responsible").First(&bill, billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	if !isMember(bill.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", bill)
}

// PUT /api/bills/:id — draft bills only
func UpdateBill(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	if !isMember(bill.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if bill.IsPaid {
		utils.RespondError(c, utils.InvalidStatef("Finalized", "finalized bills cannot be edited"))
		return
	}

	var req models.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.UtilityType != "" {
		updates["utility_type"] = req.UtilityType
	}
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			utils.BadRequest(c, "Invalid due date, expected YYYY-MM-DD")
			return
		}
		updates["due_date"] = dueDate
	}
	if req.ResponsibleUserID != "" {
		responsibleID, err := uuid.Parse(req.ResponsibleUserID)
		if err != nil {
			utils.BadRequest(c, "Invalid responsible user ID")
			return
		}
		if !isMember(bill.HouseID, responsibleID) {
			utils.BadRequest(c, "Responsible user is not a member of this house")
			return
		}
		updates["responsible_user_id"] = responsibleID
	}

	database.DB.Model(&bill).Updates(updates)

	utils.SuccessResponse(c, http.StatusOK, "Bill updated", bill)
}

// POST /api/bills/:id/finalize — commits the bill into the ledger, once
func FinalizeBill(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		// Row lock serializes racing finalize attempts: the loser observes
		// the already-finalized state and fails
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bill, billID).Error; err != nil {
			return utils.NotFoundf("bill not found")
		}
		if !isMember(bill.HouseID, userID) {
			return utils.NotFoundf("bill not found")
		}
		if userID != bill.ResponsibleUserID && !isHouseCreator(bill.HouseID, userID) {
			return utils.Unauthorizedf("only the house creator or the responsible member can finalize a bill")
		}
		if bill.IsPaid {
			return utils.AlreadyFinalizedf("Finalized", "bill is already finalized")
		}

		memberIDs := houseMemberIDs(bill.HouseID)
		shares, err := services.Allocate(bill.Amount, bill.ResponsibleUserID, memberIDs, nil, models.SplitPolicyEqual, nil)
		if err != nil {
			return err
		}

		for _, share := range shares {
			alloc := models.BillAllocation{
				BillID: bill.ID,
				UserID: share.UserID,
				Amount: share.Amount,
			}
			if err := tx.Create(&alloc).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		bill.IsPaid = true
		bill.FinalizedAt = &now
		return tx.Save(&bill).Error
	})
	if txErr != nil {
		utils.RespondError(c, txErr)
		return
	}

	database.InvalidateHouseBalances(bill.HouseID)

	var finalizer models.User
	database.DB.First(&finalizer, userID)
	database.DB.Create(&models.Activity{
		HouseID:     bill.HouseID,
		UserID:      userID,
		Type:        "bill_finalized",
		ReferenceID: bill.ID,
		Description: fmt.Sprintf("%s finalized bill \"%s\" (%s %.2f)", finalizer.FullName, bill.Title, bill.Currency, bill.Amount),
	})

	var allocations []models.BillAllocation
	database.DB.Where("bill_id = ?", bill.ID).Find(&allocations)
	var house models.House
	database.DB.First(&house, bill.HouseID)
	go services.GetNotificationService().NotifyBillFinalized(bill, allocations, house)

	utils.SuccessResponse(c, http.StatusOK, "Bill finalized", bill)
}

// POST /api/bills/:id/documents — provenance only, never touches allocations
func UploadBillDocument(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	if !isMember(bill.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}

	var req models.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	database.DB.Model(&bill).Update("document_url", req.DocumentURL)

	utils.SuccessResponse(c, http.StatusOK, "Document attached", bill)
}

// DELETE /api/bills/:id — draft bills only
func DeleteBill(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	if !isMember(bill.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if bill.IsPaid {
		utils.RespondError(c, utils.InvalidStatef("Finalized", "finalized bills cannot be deleted"))
		return
	}

	database.DB.Delete(&bill)

	utils.SuccessResponse(c, http.StatusOK, "Bill deleted", nil)
}
