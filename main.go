package main

import (
	"log"

	"houseledger-backend/config"
	"houseledger-backend/database"
	"houseledger-backend/handlers"
	"houseledger-backend/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)
		api.POST("/users/search", handlers.SearchUsers)

		// Houses
		api.POST("/houses", handlers.CreateHouse)
		api.GET("/houses", handlers.GetHouses)
		api.GET("/houses/:id", handlers.GetHouse)
		api.POST("/houses/:id/members", handlers.AddMember)
		api.DELETE("/houses/:id/members/:uid", handlers.RemoveMember)
		api.POST("/houses/:id/invite", handlers.InviteToHouseHandler)

		// Expenses
		api.POST("/houses/:id/expenses", handlers.CreateExpense)
		api.GET("/houses/:id/expenses", handlers.GetHouseExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)

		// Bills
		api.POST("/houses/:id/bills", handlers.CreateBill)
		api.GET("/houses/:id/bills", handlers.GetHouseBills)
		api.GET("/bills/:id", handlers.GetBill)
		api.PUT("/bills/:id", handlers.UpdateBill)
		api.POST("/bills/:id/finalize", handlers.FinalizeBill)
		api.POST("/bills/:id/documents", handlers.UploadBillDocument)
		api.DELETE("/bills/:id", handlers.DeleteBill)

		// Recurring charges
		api.POST("/houses/:id/charges", handlers.CreateRecurringCharge)
		api.GET("/houses/:id/charges", handlers.ListCharges)
		api.POST("/charges/:id/cycles", handlers.GenerateCycle)
		api.PUT("/charges/:id/deactivate", handlers.DeactivateCharge)
		api.PUT("/charges/:id/activate", handlers.ActivateCharge)
		api.POST("/charges/cycles/:id/bill", handlers.SetCycleBill)
		api.POST("/charges/cycles/:id/paid", handlers.MarkCyclePaid)

		// Payments
		api.POST("/houses/:id/payments", handlers.CreatePayment)
		api.GET("/houses/:id/payments", handlers.GetHousePayments)
		api.GET("/payments/pending", handlers.GetPendingPayments)
		api.POST("/payments/:id/approve", handlers.ApprovePayment)
		api.POST("/payments/:id/reject", handlers.RejectPayment)

		// Balances
		api.GET("/houses/:id/balances", handlers.GetHouseBalances)
		api.GET("/houses/:id/balances/:uid", handlers.GetUserBalances)
		api.GET("/houses/:id/settlements", handlers.GetSettlementSuggestions)

		// Activity
		api.GET("/activity", handlers.GetActivity)
		api.GET("/houses/:id/activity", handlers.GetHouseActivity)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)

	addr := "0.0.0.0:" + port
	log.Printf("🚀 Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
