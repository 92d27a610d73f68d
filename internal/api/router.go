package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/gradeidea/roast-service/docs"
	"github.com/gradeidea/roast-service/internal/api/handler"
	"github.com/gradeidea/roast-service/internal/api/middleware"
	"github.com/gradeidea/roast-service/internal/core/ports"
)

// Deps carries the explicitly constructed dependencies the router wires into
// handlers. Nothing here is a package-level singleton; tests substitute any
// field with an in-memory fake.
type Deps struct {
	Roasts     ports.RoastService
	Auth       ports.AuthService
	Ledger     ports.TokenLedger
	Dispatcher handler.CompletionDispatcher
	Verifier   handler.SignatureVerifier
	Mongo      *mongo.Database
	Redis      *redis.Client
	JWTSecret  string
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gradeidea"))

	auth := middleware.Auth(deps.JWTSecret)
	optionalAuth := middleware.OptionalAuth(deps.JWTSecret)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Roast lifecycle ---
	roastHandler := handler.NewRoastHandler(deps.Roasts)
	e.POST("/v1/roasts", roastHandler.Start, optionalAuth)
	e.POST("/v1/roasts/checkout", roastHandler.StartCheckout)
	e.GET("/v1/roasts/:id", roastHandler.Get)
	e.GET("/v1/checkout/sessions/:id", roastHandler.SessionStatus)

	// --- Payment webhook ---
	webhookHandler := handler.NewWebhookHandler(deps.Dispatcher, deps.Verifier)
	e.POST("/v1/webhooks/payment", webhookHandler.Receive)

	// --- Token balance ---
	tokenHandler := handler.NewTokenHandler(deps.Ledger)
	e.GET("/v1/tokens", tokenHandler.Balance, auth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational surface ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
