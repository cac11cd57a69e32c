package services

import (
	"log"

	"houseledger-backend/database"
	"houseledger-backend/models"

	"github.com/google/uuid"
)

// InviteToHouse creates an invitation and sends the email. If the invitee is
// already registered they are added to the house directly.
func InviteToHouse(houseID uuid.UUID, invitedBy uuid.UUID, email string, phone string) {
	// Check if invitation already exists
	var existing models.Invitation
	query := database.DB.Where("house_id = ? AND status = ?", houseID, "pending")
	if email != "" {
		query = query.Where("email = ?", email)
	} else if phone != "" {
		query = query.Where("phone = ?", phone)
	}

	if err := query.First(&existing).Error; err == nil {
		log.Printf("⚠️  Invitation already exists for %s/%s in house %s", email, phone, houseID)
		return
	}

	// Check if user is already registered
	var existingUser models.User
	if email != "" {
		if err := database.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
			var existingMember models.HouseMember
			if err := database.DB.Where("house_id = ? AND user_id = ?", houseID, existingUser.ID).First(&existingMember).Error; err != nil {
				database.DB.Create(&models.HouseMember{
					HouseID: houseID,
					UserID:  existingUser.ID,
					Role:    "member",
				})
				log.Printf("✅ Added existing user %s to house %s", email, houseID)
			}
			return
		}
	}

	invitation := models.Invitation{
		HouseID:   houseID,
		InvitedBy: invitedBy,
		Email:     email,
		Phone:     phone,
		Status:    "pending",
	}

	if err := database.DB.Create(&invitation).Error; err != nil {
		log.Printf("❌ Failed to create invitation: %v", err)
		return
	}

	var inviter models.User
	database.DB.First(&inviter, invitedBy)
	var house models.House
	database.DB.First(&house, houseID)

	if email != "" {
		GetNotificationService().NotifyInvitation(email, inviter.FullName, house.Name)
	}

	log.Printf("✅ Invitation sent to %s/%s for house %s", email, phone, houseID)
}
