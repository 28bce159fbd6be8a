package routes

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/controllers"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP API. ctx bounds background work owned by the
// router, such as the rate limiter's cleanup loop.
func NewRouter(ctx context.Context, cfg *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		cors.New(corsConfig(cfg)),
	)
	if cfg.RateLimitRPS > 0 {
		router.Use(middleware.RateLimit(middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}

	auth := middleware.EnsureValidToken(cfg)
	optionalAuth := middleware.OptionalToken(cfg)
	admin := middleware.RequireRole(models.RoleAdmin)
	client := middleware.RequireRole(models.RoleUser)
	technician := middleware.RequireRole(models.RoleTechnician)
	technicianOrAdmin := middleware.RequireRole(models.RoleTechnician, models.RoleAdmin)
	participant := middleware.RequireRole(models.RoleUser, models.RoleTechnician)
	anyRole := middleware.RequireRole(models.RoleUser, models.RoleTechnician, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		// Identity
		v1.POST("/users", controllers.RegisterUser)
		v1.POST("/users/login", controllers.LoginUser)
		v1.GET("/verify-email", controllers.VerifyUserEmail)
		v1.POST("/forgot-password", controllers.ForgotPassword)
		v1.POST("/reset-password", controllers.ResetPassword)

		users := v1.Group("/users", auth)
		{
			users.GET("/me", anyRole, controllers.GetMyProfile)
			users.GET("", admin, controllers.ListUsers)
			users.GET("/:id", anyRole, controllers.GetUser)
			users.PUT("/:id", anyRole, controllers.UpdateUser)
			users.DELETE("/:id", admin, controllers.DeleteUser)
		}

		// Technicians, KYC and matching
		v1.GET("/technicians", controllers.ListTechnicians)
		v1.POST("/technicians", controllers.RegisterTechnician)
		v1.GET("/technicians/verify-email", controllers.VerifyTechnicianEmail)
		v1.POST("/technicians/login", controllers.LoginTechnician)
		v1.POST("/technicians/nearest", controllers.NearestTechnician)
		v1.GET("/technicians/nearby", controllers.NearbyTechnicians)
		v1.GET("/technicians/:id", optionalAuth, controllers.GetTechnician)

		technicians := v1.Group("/technicians", auth)
		{
			technicians.PUT("/:id", technicianOrAdmin, controllers.UpdateTechnician)
			technicians.PUT("/:id/availability", technicianOrAdmin, controllers.UpdateAvailability)
			technicians.DELETE("/:id", admin, controllers.DeleteTechnician)
			technicians.POST("/:id/firebase-kyc", technicianOrAdmin, controllers.SubmitFirebaseKYC)
			technicians.GET("/:id/kyc-status", technicianOrAdmin, controllers.GetKYCStatus)
		}

		v1.POST("/locations", auth, technician, controllers.SaveLocation)
		v1.GET("/locations/technician/:technicianId", controllers.GetTechnicianLocation)

		// Catalogue
		v1.GET("/categories", controllers.ListCategories)
		v1.POST("/categories", auth, admin, controllers.CreateCategory)

		v1.GET("/services", controllers.ListServices)
		v1.GET("/services/:id", controllers.GetService)
		services := v1.Group("/services", auth, technicianOrAdmin)
		{
			services.POST("", controllers.CreateService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		// Bookings
		appointments := v1.Group("/appointments", auth)
		{
			appointments.POST("", client, controllers.CreateAppointment)
			appointments.GET("/client/:clientId", anyRole, controllers.ListClientAppointments)
			appointments.GET("/technician/:technicianId", anyRole, controllers.ListTechnicianAppointments)
			appointments.PUT("/:id", anyRole, controllers.UpdateAppointment)
			appointments.DELETE("/:id", anyRole, controllers.CancelAppointment)
		}

		v1.POST("/ratings", auth, client, controllers.CreateRating)
		v1.GET("/ratings/technician/:technicianId", controllers.ListTechnicianRatings)

		v1.POST("/payments/callback", controllers.PaymentCallback)
		payments := v1.Group("/payments", auth, anyRole)
		{
			payments.POST("", controllers.CreatePayment)
			payments.POST("/simulate", controllers.SimulatePayment)
		}

		messages := v1.Group("/messages", auth)
		{
			messages.GET("/appointment/:appointmentId", anyRole, controllers.ListMessages)
			messages.POST("", participant, controllers.SendMessage)
		}

		notifications := v1.Group("/notifications", auth)
		{
			notifications.POST("/register", participant, controllers.RegisterDevice)
			notifications.POST("/send", admin, controllers.SendNotification)
		}

		// Admin dashboard
		adminGroup := v1.Group("/admin", auth, admin)
		{
			adminGroup.GET("/dashboard/stats", controllers.GetDashboardStats)
			adminGroup.GET("/technicians/pending", controllers.ListPendingTechnicians)
			adminGroup.POST("/technicians/:id/approve", controllers.ApproveTechnician)
			adminGroup.POST("/technicians/:id/reject", controllers.RejectTechnician)

			adminGroup.GET("/kyc/technicians/pending-review", controllers.ListPendingReview)
			adminGroup.POST("/kyc/technicians/:id/final-verification", controllers.FinalVerification)
			adminGroup.GET("/kyc/statistics", controllers.KYCStatistics)
		}
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.CORSAllowedOrigins
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	return c
}
