package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arman-rs/ClinicAppBack/internal/config"
	"github.com/arman-rs/ClinicAppBack/internal/handlers"
	"github.com/arman-rs/ClinicAppBack/internal/middleware"
	"github.com/arman-rs/ClinicAppBack/internal/policy"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
	"github.com/arman-rs/ClinicAppBack/internal/services"
	chatws "github.com/arman-rs/ClinicAppBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	parentProfileRepo := repository.NewParentProfileRepository(db)
	therapistProfileRepo := repository.NewTherapistProfileRepository(db)
	childRepo := repository.NewChildRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cancellationRepo := repository.NewCancellationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	clinicTZ := cfg.ClinicLocation()
	refundPolicy := policy.RefundPolicy{
		Version:              cfg.RefundPolicyVersion,
		FullRefundHours:      cfg.RefundFullHours,
		PartialRefundPercent: cfg.RefundPartialPercent,
	}

	authHandler := handlers.NewAuthHandler(
		db,
		userRepo,
		parentProfileRepo,
		therapistProfileRepo,
		cfg.JWTSecret,
	)
	onboardingHandler := handlers.NewOnboardingHandler(parentProfileRepo, therapistProfileRepo)
	profileService := services.NewProfileService(parentProfileRepo, therapistProfileRepo)
	profileHandler := handlers.NewProfileHandler(profileService, parentProfileRepo, therapistProfileRepo)
	childHandler := handlers.NewChildHandler(childRepo)
	matchingService := services.NewMatchingService(therapistProfileRepo)
	discoveryHandler := handlers.NewTherapistDiscoveryHandler(
		therapistProfileRepo,
		parentProfileRepo,
		childRepo,
		matchingService,
	)
	sessionService := services.NewSessionService(db, sessionRepo, paymentRepo, userRepo, childRepo, therapistProfileRepo)
	sessionHandler := handlers.NewSessionHandler(sessionService, clinicTZ)
	refundService := services.NewRefundService(db, sessionRepo, paymentRepo, cancellationRepo, therapistProfileRepo, refundPolicy)
	refundHandler := handlers.NewRefundHandler(refundService, clinicTZ)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	parents := authProtected.Group("/parents")
	parents.Post("/onboarding", onboardingHandler.ParentOnboarding)
	parents.Get("/profile", profileHandler.GetParentProfile)
	parents.Put("/profile", profileHandler.UpdateParentProfile)

	therapists := authProtected.Group("/therapists")
	therapists.Get("", discoveryHandler.ListTherapists)
	therapists.Post("/onboarding", onboardingHandler.TherapistOnboarding)
	therapists.Get("/profile", profileHandler.GetTherapistProfile)
	therapists.Put("/profile", profileHandler.UpdateTherapistProfile)
	therapists.Get("/recommended", discoveryHandler.GetRecommendedTherapists)
	therapists.Get("/:id", discoveryHandler.GetTherapistDetail)

	children := authProtected.Group("/children")
	children.Post("", childHandler.CreateChild)
	children.Get("", childHandler.ListChildren)
	children.Get("/:id", childHandler.GetChild)

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
	sessions.Post("/:id/pay", sessionHandler.PayForSession)
	sessions.Get("/:id/refund-quote", refundHandler.GetRefundQuote)
	sessions.Post("/:id/cancel", refundHandler.CancelSession)
	sessions.Get("/:id/reschedule-eligibility", refundHandler.GetRescheduleEligibility)
	sessions.Post("/:id/reschedule", refundHandler.RescheduleSession)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return nil
}
