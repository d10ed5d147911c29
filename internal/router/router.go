// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencampus/admissions-backend/internal/config"
	"github.com/opencampus/admissions-backend/internal/handlers"
	"github.com/opencampus/admissions-backend/internal/middleware"
	"github.com/opencampus/admissions-backend/internal/repository"
	"github.com/opencampus/admissions-backend/internal/services"
	"github.com/opencampus/admissions-backend/internal/txlock"
	"github.com/opencampus/admissions-backend/internal/utils"
)

// Initialize wires services, handlers and routes. The lock service is
// constructed once per process and injected; callers own its lifecycle and
// must Close it on shutdown.
func Initialize(db *gorm.DB, cfg *config.Config, locks *txlock.Service) *gin.Engine {
	// Initialize services
	repo := repository.NewGormRepository(db)
	gateway := services.NewStripeGateway(cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	applicationService := services.NewApplicationService(repo, gateway, locks)
	admissionService := services.NewAdmissionService(repo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, storageService, cfg)
	admissionHandler := handlers.NewAdmissionHandler(admissionService)
	lockHandler := handlers.NewLockHandler(locks)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Application pipeline routes
		applications := v1.Group("/applications")
		applications.Use(middleware.AuthRequired())
		{
			applications.POST("", applicationHandler.StartApplication)
			applications.GET("/me", applicationHandler.GetMyApplication)
			applications.PUT("/:id/sections/:section", applicationHandler.SaveSection)
			applications.POST("/:id/documents", middleware.UploadRateLimit(), applicationHandler.UploadDocument)
			applications.POST("/:id/payments", middleware.PaymentRateLimit(), applicationHandler.InitiatePayment)
			applications.POST("/:id/finalize", applicationHandler.FinalizeAdmission)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.GET("/config", applicationHandler.GetPaymentConfig)
			payments.POST("/:id/confirm", applicationHandler.ConfirmPayment)
		}

		// Admission routes
		admissions := v1.Group("/admissions")
		admissions.Use(middleware.AuthRequired())
		{
			admissions.GET("/me", admissionHandler.GetMyAdmission)
			admissions.POST("/accept/:token", admissionHandler.AcceptOffer)
		}

		// Lock inspection for the applicant's own workflow
		locksGroup := v1.Group("/locks")
		locksGroup.Use(middleware.AuthRequired())
		{
			locksGroup.GET("/status", lockHandler.GetLockStatus)
			locksGroup.POST("/extend", lockHandler.ExtendLock)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminAdmissions := admin.Group("/admissions")
			{
				adminAdmissions.GET("", admissionHandler.ListAdmissions)
				adminAdmissions.PUT("/:id/offer", admissionHandler.MakeOffer)
				adminAdmissions.PUT("/:id/approve", admissionHandler.Approve)
				adminAdmissions.PUT("/:id/reject", admissionHandler.Reject)
			}

			adminLocks := admin.Group("/locks")
			{
				adminLocks.DELETE("/:ownerId", lockHandler.ForceReleaseOwnerLocks)
			}
		}
	}

	return r
}
