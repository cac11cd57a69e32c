package database

import (
	"log"

	"houseledger-backend/config"
	"houseledger-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect() {
	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("✅ Database connected successfully")

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.HouseMember{},
		&models.Expense{},
		&models.ExpenseAllocation{},
		&models.Bill{},
		&models.BillAllocation{},
		&models.ChargeContract{},
		&models.ChargeWeight{},
		&models.ChargeCycle{},
		&models.ChargeShare{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.Activity{},
		&models.Invitation{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database migrated successfully")
}
