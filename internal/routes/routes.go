package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cpap-admin-server/internal/config"
	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/handlers"
	"cpap-admin-server/internal/middleware"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/repository"
	"cpap-admin-server/internal/services"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger, clock dates.Clock) {
	taskService := services.NewTaskService(db, repository.NewTaskRepository(db), log.Named("tasks"), clock)
	dashboardService := services.NewDashboardService(db, clock)

	authHandler := handlers.NewAuthHandler(db, cfg, log.Named("auth"), clock)
	userHandler := handlers.NewUserHandler(db)
	patientHandler := handlers.NewPatientHandler(db, cfg.Location)
	diagnosticHandler := handlers.NewDiagnosticHandler(db, taskService, log.Named("diagnostics"), cfg.Location)
	deviceHandler := handlers.NewDeviceHandler(db)
	saleHandler := handlers.NewSaleHandler(db, taskService, log.Named("sales"), cfg.Location)
	rentalHandler := handlers.NewRentalHandler(db, taskService, log.Named("rentals"), cfg.Location)
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Location)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, log.Named("dashboard"), clock)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg, log))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", patientHandler.CreatePatient)
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.DeletePatient)
			patientRoutes.GET("/:id/diagnostics", diagnosticHandler.GetDiagnosticsForPatient)
			patientRoutes.GET("/:id/tasks", taskHandler.GetPatientTasks)
		}

		diagnosticRoutes := private.Group("/diagnostics")
		{
			diagnosticRoutes.POST("", diagnosticHandler.CreateDiagnostic)
			diagnosticRoutes.GET("", diagnosticHandler.GetDiagnostics)
			diagnosticRoutes.GET("/:id", diagnosticHandler.GetDiagnosticByID)
		}

		deviceRoutes := private.Group("/devices")
		{
			deviceRoutes.POST("", deviceHandler.CreateDevice)
			deviceRoutes.GET("", deviceHandler.GetDevices)
			deviceRoutes.GET("/:id", deviceHandler.GetDeviceByID)
			deviceRoutes.PUT("/:id", deviceHandler.UpdateDevice)
			deviceRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), deviceHandler.DeleteDevice)
		}

		saleRoutes := private.Group("/sales")
		{
			saleRoutes.POST("", saleHandler.CreateSale)
			saleRoutes.GET("", saleHandler.GetSales)
			saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		}

		rentalRoutes := private.Group("/rentals")
		{
			rentalRoutes.POST("", rentalHandler.CreateRental)
			rentalRoutes.GET("", rentalHandler.GetRentals)
			rentalRoutes.GET("/:id", rentalHandler.GetRentalByID)
			rentalRoutes.POST("/:id/payments", rentalHandler.AddPayment)
			rentalRoutes.PATCH("/:id/payments/:paymentId/settle", rentalHandler.SettlePayment)
			rentalRoutes.PATCH("/:id/end", rentalHandler.EndRental)
		}

		paymentRoutes := private.Group("/payments")
		{
			paymentRoutes.GET("/:id/schedule", dashboardHandler.GetPaymentSchedule)
			paymentRoutes.GET("/:id/schedule/export", dashboardHandler.ExportPaymentSchedule)
		}

		taskRoutes := private.Group("/tasks")
		{
			taskRoutes.GET("", taskHandler.GetTasks)
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("/reminders", taskHandler.GetDueReminders)
			taskRoutes.POST("/sync", taskHandler.SyncTasks)
			taskRoutes.PATCH("/:id/complete", taskHandler.SetTaskCompleted)
			taskRoutes.PATCH("/:id/reminder-sent", taskHandler.MarkReminderSent)
		}

		dashboardRoutes := private.Group("/dashboard")
		{
			dashboardRoutes.GET("/devices", dashboardHandler.GetDevicePaymentStatuses)
			dashboardRoutes.GET("/devices/export", dashboardHandler.ExportDevicePaymentStatuses)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
