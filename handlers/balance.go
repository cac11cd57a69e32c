package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"houseledger-backend/config"
	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/houses/:id/balances/:uid — one member's view of the ledger
func GetUserBalances(c *gin.Context) {
	callerID := utils.GetCurrentUserID(c)
	houseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid house ID")
		return
	}
	targetID, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if !isMember(houseID, callerID) {
		utils.Forbidden(c, "You are not a member of this house")
		return
	}
	if !isMember(houseID, targetID) {
		utils.NotFound(c, "User is not a member of this house")
		return
	}

	if cached := database.GetCachedBalances(houseID, targetID); cached != "" {
		var summary models.UserBalanceSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			utils.SuccessResponse(c, http.StatusOK, "", summary)
			return
		}
	}

	allocs, payments := loadLedgerEntries(houseID)

	net := services.NetBalances(allocs, payments)
	pairwise := services.PairwiseFor(targetID, allocs, payments)

	summary := models.UserBalanceSummary{
		HouseID:    houseID,
		UserID:     targetID,
		NetBalance: net[targetID],
		Currency:   config.AppConfig.Currency,
		Pairwise:   buildPairwise(pairwise),
	}

	if payload, err := json.Marshal(summary); err == nil {
		database.CacheBalances(houseID, targetID, string(payload))
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/houses/:id/balances — net position of every member
func GetHouseBalances(c *gin.Context) {
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

	allocs, payments := loadLedgerEntries(houseID)
	net := services.NetBalances(allocs, payments)

	netByID := make(map[string]float64, len(net))
	for id, amount := range net {
		netByID[id.String()] = amount
	}
	// Members with no ledger history still show up, at zero
	for _, id := range houseMemberIDs(houseID) {
		if _, ok := netByID[id.String()]; !ok {
			netByID[id.String()] = 0
		}
	}

	var totalSpent float64
	database.DB.Model(&models.Expense{}).
		Where("house_id = ?", houseID).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalSpent)

	var house models.House
	database.DB.First(&house, houseID)

	utils.SuccessResponse(c, http.StatusOK, "", models.HouseBalanceSummary{
		HouseID:     houseID,
		HouseName:   house.Name,
		NetBalances: netByID,
		TotalSpent:  utils.RoundToTwo(totalSpent),
	})
}

// GET /api/houses/:id/settlements — suggested transfers to zero the house out
func GetSettlementSuggestions(c *gin.Context) {
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

	allocs, payments := loadLedgerEntries(houseID)
	transfers := services.SimplifyDebts(services.NetBalances(allocs, payments))

	var suggestions []models.SettlementSuggestion
	for _, t := range transfers {
		var from, to models.User
		database.DB.First(&from, t.FromUserID)
		database.DB.First(&to, t.ToUserID)
		suggestions = append(suggestions, models.SettlementSuggestion{
			FromUserID:   t.FromUserID,
			FromUserName: from.FullName,
			ToUserID:     t.ToUserID,
			ToUserName:   to.FullName,
			Amount:       t.Amount,
			Currency:     config.AppConfig.Currency,
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", suggestions)
}

// loadLedgerEntries pulls everything that counts toward balances: expense
// allocations, allocations of finalized bills, and approved payments.
// Pending and rejected payments never appear here.
func loadLedgerEntries(houseID uuid.UUID) ([]services.AllocationEntry, []services.PaymentEntry) {
	var allocs []services.AllocationEntry

	var expenseAllocs []struct {
		PaidBy uuid.UUID
		UserID uuid.UUID
		Amount float64
	}
	database.DB.Model(&models.ExpenseAllocation{}).
		Select("expenses.paid_by, expense_allocations.user_id, expense_allocations.amount").
		Joins("JOIN expenses ON expenses.id = expense_allocations.expense_id").
		Where("expenses.house_id = ?", houseID).
		Scan(&expenseAllocs)
	for _, a := range expenseAllocs {
		allocs = append(allocs, services.AllocationEntry{PayerID: a.PaidBy, UserID: a.UserID, Amount: a.Amount})
	}

	var billAllocs []struct {
		ResponsibleUserID uuid.UUID
		UserID            uuid.UUID
		Amount            float64
	}
	database.DB.Model(&models.BillAllocation{}).
		Select("bills.responsible_user_id, bill_allocations.user_id, bill_allocations.amount").
		Joins("JOIN bills ON bills.id = bill_allocations.bill_id").
		Where("bills.house_id = ? AND bills.is_paid = ?", houseID, true).
		Scan(&billAllocs)
	for _, a := range billAllocs {
		allocs = append(allocs, services.AllocationEntry{PayerID: a.ResponsibleUserID, UserID: a.UserID, Amount: a.Amount})
	}

	var approved []models.Payment
	database.DB.Where("house_id = ? AND status = ?", houseID, models.PaymentApproved).Find(&approved)

	payments := make([]services.PaymentEntry, 0, len(approved))
	for _, p := range approved {
		payments = append(payments, services.PaymentEntry{
			FromUserID: p.FromUserID,
			ToUserID:   p.ToUserID,
			Amount:     p.Amount,
		})
	}

	return allocs, payments
}

func buildPairwise(balances map[uuid.UUID]float64) []models.PairwiseBalance {
	ids := make([]uuid.UUID, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	var result []models.PairwiseBalance
	for _, id := range ids {
		var user models.User
		database.DB.First(&user, id)
		result = append(result, models.PairwiseBalance{
			CounterpartID:   id,
			CounterpartName: user.FullName,
			Amount:          balances[id],
		})
	}
	return result
}
