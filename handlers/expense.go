package handlers

import (
	"fmt"
	"net/http"

	"houseledger-backend/config"
	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POST /api/houses/:id/expenses
func CreateExpense(c *gin.Context) {
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

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		utils.BadRequest(c, "Invalid payer ID")
		return
	}

	carveOuts, weights, err := parseSplitInputs(req.PersonalExpenses, req.Weights)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	policy := req.SplitPolicy
	if policy == "" {
		policy = models.SplitPolicyEqual
	}

	memberIDs := houseMemberIDs(houseID)
	shares, err := services.Allocate(req.TotalAmount, payerID, memberIDs, carveOuts, policy, weights)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var house models.House
	database.DB.First(&house, houseID)

	expense := models.Expense{
		HouseID:     houseID,
		Type:        req.Type,
		TotalAmount: req.TotalAmount,
		Currency:    config.AppConfig.Currency,
		PaidBy:      payerID,
		RecordedBy:  userID,
		SplitPolicy: policy,
		Notes:       req.Notes,
	}

	// Expense and its allocations are written atomically: all or none
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		for _, share := range shares {
			alloc := models.ExpenseAllocation{
				ExpenseID: expense.ID,
				UserID:    share.UserID,
				Amount:    share.Amount,
				CarveOut:  carveOuts[share.UserID],
				Weight:    weights[share.UserID],
			}
			if err := tx.Create(&alloc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalError(c, "Failed to create expense")
		return
	}

	database.InvalidateHouseBalances(houseID)

	var payer models.User
	database.DB.First(&payer, payerID)

	database.DB.Create(&models.Activity{
		HouseID:     houseID,
		UserID:      userID,
		Type:        "expense_added",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s added \"%s\" (%s %.2f)", payer.FullName, expense.Type, expense.Currency, expense.TotalAmount),
	})

	var allocations []models.ExpenseAllocation
	database.DB.Where("expense_id = ?", expense.ID).Find(&allocations)
	go services.GetNotificationService().NotifyExpenseAdded(expense, allocations, payer, house)

	utils.SuccessResponse(c, http.StatusCreated, "Expense added", buildExpenseResponse(expense.ID))
}

// GET /api/houses/:id/expenses
func GetHouseExpenses(c *gin.Context) {
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

	var expenses []models.Expense
	query := database.DB.Where("house_id = ?", houseID)
	if expenseType := c.Query("type"); expenseType != "" {
		query = query.Where("type = ?", expenseType)
	}
	query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", buildExpenseResponse(expenseID))
}

// PUT /api/expenses/:id
func UpdateExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if expense.RecordedBy != userID && !isHouseCreator(expense.HouseID, userID) {
		utils.Forbidden(c, "Only the recorder or the house creator can edit an expense")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Type != "" {
		expense.Type = req.Type
	}
	if req.Notes != "" {
		expense.Notes = req.Notes
	}

	// Only a monetary change re-allocates; a notes/type edit keeps the stored
	// allocation rows untouched
	reallocate := req.TotalAmount > 0 || req.PayerID != "" ||
		req.SplitPolicy != "" || len(req.Weights) > 0 || req.PersonalExpenses != nil

	if req.TotalAmount > 0 {
		expense.TotalAmount = req.TotalAmount
	}
	if req.PayerID != "" {
		payerID, err := uuid.Parse(req.PayerID)
		if err != nil {
			utils.BadRequest(c, "Invalid payer ID")
			return
		}
		expense.PaidBy = payerID
	}

	if !reallocate {
		if err := database.DB.Save(&expense).Error; err != nil {
			utils.InternalError(c, "Failed to update expense")
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Expense updated", buildExpenseResponse(expense.ID))
		return
	}

	carveOuts, weights, err := parseSplitInputs(req.PersonalExpenses, req.Weights)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Fields the request leaves out fall back to the stored split recipe, so
	// an amount-only edit re-runs the original split
	var existing []models.ExpenseAllocation
	database.DB.Where("expense_id = ?", expenseID).Find(&existing)
	spec := services.SplitSpecFromAllocations(expense.SplitPolicy, existing)
	if req.SplitPolicy != "" {
		spec.Policy = req.SplitPolicy
	}
	if req.PersonalExpenses != nil {
		spec.CarveOuts = carveOuts
	}
	if len(weights) > 0 {
		spec.Weights = weights
	}
	expense.SplitPolicy = spec.Policy

	memberIDs := houseMemberIDs(expense.HouseID)
	shares, err := services.Allocate(expense.TotalAmount, expense.PaidBy, memberIDs, spec.CarveOuts, spec.Policy, spec.Weights)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&expense).Error; err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", expenseID).Delete(&models.ExpenseAllocation{}).Error; err != nil {
			return err
		}
		for _, share := range shares {
			alloc := models.ExpenseAllocation{
				ExpenseID: expense.ID,
				UserID:    share.UserID,
				Amount:    share.Amount,
				CarveOut:  spec.CarveOuts[share.UserID],
				Weight:    spec.Weights[share.UserID],
			}
			if err := tx.Create(&alloc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalError(c, "Failed to update expense")
		return
	}

	database.InvalidateHouseBalances(expense.HouseID)

	var editor models.User
	database.DB.First(&editor, userID)

	database.DB.Create(&models.Activity{
		HouseID:     expense.HouseID,
		UserID:      userID,
		Type:        "expense_updated",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s updated \"%s\"", editor.FullName, expense.Type),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", buildExpenseResponse(expense.ID))
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.HouseID, userID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if expense.RecordedBy != userID && !isHouseCreator(expense.HouseID, userID) {
		utils.Forbidden(c, "Only the recorder or the house creator can delete an expense")
		return
	}

	var deleter models.User
	database.DB.First(&deleter, userID)

	database.DB.Create(&models.Activity{
		HouseID:     expense.HouseID,
		UserID:      userID,
		Type:        "expense_deleted",
		Description: fmt.Sprintf("%s deleted \"%s\" (%s %.2f)", deleter.FullName, expense.Type, expense.Currency, expense.TotalAmount),
	})

	// Expense and allocations go together
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expenseID).Delete(&models.ExpenseAllocation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete expense")
		return
	}

	database.InvalidateHouseBalances(expense.HouseID)

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// Parse carve-out and weight inputs into UUID-keyed maps
func parseSplitInputs(personal []models.CarveOutInput, weights map[string]float64) (map[uuid.UUID]float64, map[uuid.UUID]float64, error) {
	var carveOuts map[uuid.UUID]float64
	if len(personal) > 0 {
		carveOuts = make(map[uuid.UUID]float64, len(personal))
		for _, p := range personal {
			uid, err := uuid.Parse(p.UserID)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid user ID: %s", p.UserID)
			}
			carveOuts[uid] += p.Amount
		}
	}

	var weightMap map[uuid.UUID]float64
	if len(weights) > 0 {
		weightMap = make(map[uuid.UUID]float64, len(weights))
		for userIDStr, w := range weights {
			uid, err := uuid.Parse(userIDStr)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid user ID in weights: %s", userIDStr)
			}
			weightMap[uid] = w
		}
	}

	return carveOuts, weightMap, nil
}

// Build expense response with payer name and allocation details
func buildExpenseResponse(expenseID uuid.UUID) models.ExpenseResponse {
	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		return models.ExpenseResponse{}
	}

	var payer models.User
	database.DB.First(&payer, expense.PaidBy)

	var dbAllocations []models.ExpenseAllocation
	database.DB.Where("expense_id = ?", expenseID).Find(&dbAllocations)

	var allocResponses []models.AllocationResponse
	for _, a := range dbAllocations {
		var user models.User
		database.DB.First(&user, a.UserID)
		allocResponses = append(allocResponses, models.AllocationResponse{
			UserID:   a.UserID,
			UserName: user.FullName,
			Amount:   a.Amount,
		})
	}

	return models.ExpenseResponse{
		ID:          expense.ID,
		HouseID:     expense.HouseID,
		Type:        expense.Type,
		TotalAmount: expense.TotalAmount,
		Currency:    expense.Currency,
		PaidBy:      expense.PaidBy,
		PayerName:   payer.FullName,
		RecordedBy:  expense.RecordedBy,
		SplitPolicy: expense.SplitPolicy,
		Notes:       expense.Notes,
		Allocations: allocResponses,
		CreatedAt:   expense.CreatedAt,
	}
}
