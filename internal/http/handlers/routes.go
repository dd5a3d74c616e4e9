package handlers

import (
	"catalogai/internal/app"
	"catalogai/internal/http/middleware"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	// Auth routes (no authentication required)
	authHandler := NewAuthHandler(services.AuthService)
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(services.AuthService))

	protected.PUT("/auth/change-password", authHandler.ChangePassword)

	// Source file uploads and validation
	uploadHandler := NewUploadHandler(services.JobService, services.ArtifactStore)
	uploads := protected.Group("/uploads")
	uploads.POST("", uploadHandler.Upload)
	uploads.POST("/validate", uploadHandler.Validate)
	uploads.POST("/custom-import", uploadHandler.UploadCustomImport)
	uploads.GET("/template", uploadHandler.DownloadTemplate)

	// Batch job lifecycle
	jobHandler := NewJobHandler(services.JobService, services.ArtifactStore)
	jobs := protected.Group("/jobs")
	jobs.GET("", jobHandler.List)
	jobs.GET("/error-reports/:name", jobHandler.DownloadErrorReport)
	jobs.GET("/:id", jobHandler.Get)
	jobs.POST("/:id/poll", jobHandler.Poll)
	jobs.POST("/:id/retry", jobHandler.Retry)
	jobs.DELETE("/:id", jobHandler.Delete)
	jobs.GET("/:id/result", jobHandler.DownloadResult)

	// Single product generation and generated records
	generateHandler := NewGenerateHandler(services.GenerationService)
	protected.POST("/generate", generateHandler.Generate)
	records := protected.Group("/records")
	records.GET("", generateHandler.ListRecords)
	records.GET("/:id", generateHandler.GetRecord)

	// Field mapping profiles
	mappingHandler := NewMappingHandler(services.MappingRepo)
	mapping := protected.Group("/mapping-profiles")
	mapping.GET("", mappingHandler.List)
	mapping.GET("/default", mappingHandler.GetDefault)
	mapping.GET("/:id", mappingHandler.Get)
	mapping.POST("", mappingHandler.Create)
	mapping.PUT("/:id", mappingHandler.Update)
	mapping.DELETE("/:id", mappingHandler.Delete)

	// Catalog products and apply operations
	productHandler := NewProductHandler(services.ProductService, services.ProductRepo)
	products := protected.Group("/products")
	products.GET("", productHandler.List)
	products.POST("/apply", productHandler.ApplyCreate)
	products.GET("/:id", productHandler.Get)
	products.POST("/:id/apply", productHandler.ApplyUpdate)

	// Generation service account and health surface
	diagnosticsHandler := NewDiagnosticsHandler(services.GenClient)
	genapiGroup := protected.Group("/genapi", middleware.AdminOnly())
	genapiGroup.GET("/health", diagnosticsHandler.Health)
	genapiGroup.POST("/login", diagnosticsHandler.Login)
	genapiGroup.POST("/regenerate-key", diagnosticsHandler.RegenerateKey)
	genapiGroup.GET("/me", diagnosticsHandler.Me)
	genapiGroup.GET("/usage", diagnosticsHandler.UsageStats)
	genapiGroup.GET("/billing/:section", diagnosticsHandler.Billing)
}
