package handlers

import (
	"net/http"

	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/activity — global activity feed for current user
func GetActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	// Get all houses user is in
	var memberships []models.HouseMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	var houseIDs []uuid.UUID
	for _, m := range memberships {
		houseIDs = append(houseIDs, m.HouseID)
	}

	var activities []models.Activity
	if len(houseIDs) > 0 {
		database.DB.Where("house_id IN ?", houseIDs).
			Preload("User").
			Order("created_at DESC").
			Offset(pagination.Offset()).
			Limit(pagination.Limit).
			Find(&activities)

		// Attach house names
		houseNames := make(map[uuid.UUID]string)
		var houses []models.House
		database.DB.Where("id IN ?", houseIDs).Find(&houses)
		for _, h := range houses {
			houseNames[h.ID] = h.Name
		}
		for i := range activities {
			activities[i].HouseName = houseNames[activities[i].HouseID]
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/houses/:id/activity — activity feed for a specific house
func GetHouseActivity(c *gin.Context) {
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

	var activities []models.Activity
	database.DB.Where("house_id = ?", houseID).
		Preload("User").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
