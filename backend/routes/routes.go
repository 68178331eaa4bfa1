package routes

import (
	"kotoba/backend/config"
	"kotoba/backend/controllers"
	"kotoba/backend/middleware"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services are the long-lived collaborators built at startup.
type Services struct {
	Transcriber controllers.Transcriber
	Cipher      *utils.TokenCipher
	// Engines names the configured speech providers, in fallback order.
	Engines []string
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, svc Services) {
	healthController := controllers.NewHealthController(db, svc.Engines)
	app.Get("/health", healthController.Health)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/signup", authController.Signup)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/logout", authController.Logout)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Get("/api/user/activity", authMiddleware, userController.GetUserActivity)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Overview routes
	overviewController := controllers.NewOverviewController(db, cfg)
	app.Get("/api/overview/sentences", authMiddleware, overviewController.SearchSentences)

	// Pronunciation routes
	pronunciationController := controllers.NewPronunciationController(db, cfg, svc.Transcriber)
	pron := app.Group("/api/pronunciation", authMiddleware)
	pron.Get("/challenges", pronunciationController.GetChallenges)
	pron.Get("/session", pronunciationController.GetSession)
	pron.Post("/transcribe", pronunciationController.Transcribe)
	pron.Post("/complete", pronunciationController.Complete)

	// WaniKani routes
	wanikaniController := controllers.NewWaniKaniController(db, cfg, svc.Cipher)
	wk := app.Group("/api/wanikani", authMiddleware)
	wk.Post("/connect", wanikaniController.Connect)
	wk.Delete("/connect", wanikaniController.Disconnect)
	wk.Get("/test", wanikaniController.Test)
	wk.Get("/kanji", wanikaniController.GetKanji)
	wk.Get("/kanji-count", wanikaniController.GetKanjiCount)
	wk.Get("/user-level", wanikaniController.GetUserLevel)
}
