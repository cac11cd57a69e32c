package handlers

import (
	"fmt"
	"net/http"

	"houseledger-backend/database"
	"houseledger-backend/models"
	"houseledger-backend/services"
	"houseledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/houses
func CreateHouse(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	house := models.House{
		Name:      req.Name,
		CreatedBy: userID,
	}

	if err := database.DB.Create(&house).Error; err != nil {
		utils.InternalError(c, "Failed to create house")
		return
	}

	// Add creator as admin member
	member := models.HouseMember{
		HouseID: house.ID,
		UserID:  userID,
		Role:    "admin",
	}
	database.DB.Create(&member)

	// Add other members if provided
	for _, memberInput := range req.Members {
		memberUUID, err := uuid.Parse(memberInput)
		if err != nil {
			// Might be an email, try to find user
			var user models.User
			if dbErr := database.DB.Where("email = ?", memberInput).First(&user).Error; dbErr == nil {
				memberUUID = user.ID
			} else {
				// Send invitation
				go services.InviteToHouse(house.ID, userID, memberInput, "")
				continue
			}
		}

		if memberUUID != userID {
			database.DB.Create(&models.HouseMember{
				HouseID: house.ID,
				UserID:  memberUUID,
				Role:    "member",
			})
		}
	}

	var creator models.User
	database.DB.First(&creator, userID)
	database.DB.Create(&models.Activity{
		HouseID:     house.ID,
		UserID:      userID,
		Type:        "house_created",
		ReferenceID: house.ID,
		Description: fmt.Sprintf("%s created %s", creator.FullName, house.Name),
	})

	utils.SuccessResponse(c, http.StatusCreated, "House created", buildHouseResponse(house.ID))
}

// GET /api/houses — houses the current user belongs to
func GetHouses(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var memberships []models.HouseMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	var responses []models.HouseResponse
	for _, m := range memberships {
		responses = append(responses, buildHouseResponse(m.HouseID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/houses/:id
func GetHouse(c *gin.Context) {
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

	utils.SuccessResponse(c, http.StatusOK, "", buildHouseResponse(houseID))
}

// POST /api/houses/:id/members
func AddMember(c *gin.Context) {
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

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.UserID != "" {
		memberUUID, err := uuid.Parse(req.UserID)
		if err != nil {
			utils.BadRequest(c, "Invalid user ID")
			return
		}

		var user models.User
		if err := database.DB.First(&user, memberUUID).Error; err != nil {
			utils.NotFound(c, "User not found")
			return
		}

		var existing models.HouseMember
		if err := database.DB.Where("house_id = ? AND user_id = ?", houseID, memberUUID).First(&existing).Error; err == nil {
			utils.BadRequest(c, "User is already a member")
			return
		}

		database.DB.Create(&models.HouseMember{
			HouseID: houseID,
			UserID:  memberUUID,
			Role:    "member",
		})

		var adder models.User
		database.DB.First(&adder, userID)
		var house models.House
		database.DB.First(&house, houseID)

		database.DB.Create(&models.Activity{
			HouseID:     houseID,
			UserID:      userID,
			Type:        "member_joined",
			Description: fmt.Sprintf("%s added %s to %s", adder.FullName, user.FullName, house.Name),
		})

		go services.GetNotificationService().NotifyMemberAdded(house, adder, user)

		utils.SuccessResponse(c, http.StatusOK, "Member added", nil)
		return
	}

	if req.Email == "" && req.Phone == "" {
		utils.BadRequest(c, "User ID, email, or phone required")
		return
	}

	go services.InviteToHouse(houseID, userID, req.Email, req.Phone)
	utils.SuccessResponse(c, http.StatusOK, "Invitation sent", nil)
}

// DELETE /api/houses/:id/members/:uid
func RemoveMember(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	houseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid house ID")
		return
	}

	memberUID, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	// Only admin or self can remove
	var membership models.HouseMember
	database.DB.Where("house_id = ? AND user_id = ?", houseID, userID).First(&membership)
	if membership.Role != "admin" && userID != memberUID {
		utils.Forbidden(c, "Only admins can remove other members")
		return
	}

	database.DB.Where("house_id = ? AND user_id = ?", houseID, memberUID).Delete(&models.HouseMember{})

	var removedUser models.User
	database.DB.First(&removedUser, memberUID)
	var house models.House
	database.DB.First(&house, houseID)

	database.DB.Create(&models.Activity{
		HouseID:     houseID,
		UserID:      userID,
		Type:        "member_left",
		Description: fmt.Sprintf("%s left %s", removedUser.FullName, house.Name),
	})

	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}

// POST /api/houses/:id/invite
func InviteToHouseHandler(c *gin.Context) {
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

	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Email == "" && req.Phone == "" {
		utils.BadRequest(c, "Email or phone required")
		return
	}

	go services.InviteToHouse(houseID, userID, req.Email, req.Phone)

	utils.SuccessResponse(c, http.StatusOK, "Invitation sent", nil)
}

// Helper: check house membership
func isMember(houseID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.HouseMember{}).Where("house_id = ? AND user_id = ?", houseID, userID).Count(&count)
	return count > 0
}

// Helper: the house creator can finalize bills and manage contracts
func isHouseCreator(houseID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.House{}).Where("id = ? AND created_by = ?", houseID, userID).Count(&count)
	return count > 0
}

// Helper: all member user IDs of a house
func houseMemberIDs(houseID uuid.UUID) []uuid.UUID {
	var members []models.HouseMember
	database.DB.Where("house_id = ?", houseID).Find(&members)

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Helper: build full house response with members
func buildHouseResponse(houseID uuid.UUID) models.HouseResponse {
	var house models.House
	database.DB.First(&house, houseID)

	var members []models.HouseMember
	database.DB.Where("house_id = ?", houseID).Find(&members)

	var memberResponses []models.HouseMemberResponse
	for _, m := range members {
		var user models.User
		database.DB.First(&user, m.UserID)
		memberResponses = append(memberResponses, models.HouseMemberResponse{
			UserID:    m.UserID,
			FullName:  user.FullName,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		})
	}

	return models.HouseResponse{
		ID:        house.ID,
		Name:      house.Name,
		ImageURL:  house.ImageURL,
		CreatedBy: house.CreatedBy,
		Members:   memberResponses,
		CreatedAt: house.CreatedAt,
	}
}
