package main

import (
	"fmt"
	"os"

	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/internal/handler"
	"github.com/TESCHEL/clienthub/internal/middleware"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/config"
	"github.com/TESCHEL/clienthub/pkg/database"
	"github.com/TESCHEL/clienthub/pkg/jwtutil"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/pkg/metrics"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("clienthub")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Membership{},
		&model.Client{},
		&model.Project{},
		&model.Update{},
		&model.ChecklistItem{},
		&model.File{},
		&model.Approval{},
		&model.Subscription{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility for validating identity-provider tokens
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: conf.JWT.SigningKey,
	})

	// Payment provider client and route handlers
	provider := billing.NewPaymentClient(&conf.Payment)
	h := handler.New(db, provider, &conf.Payment)

	// Initialize HTTP metrics
	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Operational endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	// Public routes
	e.GET("/clienthub/hello", handler.Hello)

	// Client portal routes, authenticated by the capability token alone
	portal := e.Group("/portal/:token")
	portal.GET("", h.PortalOverview)
	portal.GET("/projects/:id", h.PortalProject)
	portal.POST("/approvals/:id/respond", h.PortalRespondApproval)

	// Payment provider webhook, authenticated by its signature
	e.POST("/webhooks/payment", h.PaymentWebhook)

	// Secured routes - require an identity-provider token
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	api.GET("/me", h.Me)

	api.POST("/clients", h.CreateClient)
	api.GET("/clients", h.ListClients)
	api.GET("/clients/:id", h.GetClient)

	api.POST("/projects", h.CreateProject)
	api.GET("/projects", h.ListProjects)
	api.GET("/projects/:id", h.GetProject)
	api.PATCH("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)

	api.POST("/updates", h.CreateUpdate)

	api.POST("/checklist-items", h.CreateChecklistItem)
	api.PATCH("/checklist-items/:id", h.UpdateChecklistItem)
	api.DELETE("/checklist-items/:id", h.DeleteChecklistItem)

	api.POST("/files", h.CreateFile)
	api.DELETE("/files/:id", h.DeleteFile)

	api.POST("/approvals", h.CreateApproval)
	api.POST("/approvals/:id/respond", h.RespondApproval)

	api.GET("/billing/:tenant_id/subscription", h.GetSubscription)
	api.POST("/billing/checkout", h.CreateCheckout)
	api.POST("/billing/portal", h.CreateBillingPortal)

	// Start server
	log.Info("Starting clienthub on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
