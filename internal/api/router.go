package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phonely/marketplace/internal/api/handler"
	"github.com/phonely/marketplace/internal/api/middleware"
	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
	"github.com/phonely/marketplace/internal/realtime"
)

// Deps carries the wired services and infrastructure the router needs.
// Construction happens in main so tests can assemble partial routers.
type Deps struct {
	Auth      ports.AuthService
	Users     ports.UserRepository
	Listings  ports.ListingService
	Chat      ports.ChatService
	Reports   ports.ReportService
	Hub       *realtime.Hub
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	ImageDir  string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("phonely"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Users)
	listingHandler := handler.NewListingHandler(deps.Listings)
	chatHandler := handler.NewChatHandler(deps.Chat)
	reportHandler := handler.NewReportHandler(deps.Reports)
	wsHandler := realtime.NewHandler(deps.Hub, deps.Chat, deps.JWTSecret)

	authRequired := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, authRequired)

	// --- Listing routes ---
	listings := v1.Group("/listings")
	listings.GET("", listingHandler.List)
	listings.GET("/:id", listingHandler.Get)
	listings.POST("", listingHandler.Create, authRequired, middleware.RBAC(domain.RoleSeller, domain.RoleAdmin))
	listings.PATCH("/:id", listingHandler.Update, authRequired)
	listings.POST("/:id/images", listingHandler.UploadImage, authRequired)
	listings.POST("/:id/sold", listingHandler.MarkSold, authRequired)
	listings.DELETE("/:id", listingHandler.Remove, authRequired)
	listings.POST("/:id/inspection", listingHandler.RequestInspection, authRequired)

	// --- Chat routes ---
	chat := v1.Group("/chats", authRequired)
	chat.POST("", chatHandler.OpenConversation)
	chat.GET("", chatHandler.ListConversations)
	chat.POST("/:id/messages", chatHandler.SendMessage)
	chat.GET("/:id/messages", chatHandler.ListMessages)
	chat.POST("/:id/messages/:messageId/respond", chatHandler.RespondToOffer)
	chat.POST("/:id/read", chatHandler.MarkRead)

	// --- Report routes ---
	reports := v1.Group("/reports", authRequired)
	reports.POST("", reportHandler.File)
	reports.GET("", reportHandler.List, adminOnly)
	reports.POST("/:id/resolve", reportHandler.Resolve, adminOnly)

	// --- Realtime ---
	v1.GET("/ws", wsHandler.Serve)

	// --- Static listing images ---
	e.Static("/static/images", deps.ImageDir)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
