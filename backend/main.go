package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/routes"
	"kotoba/backend/transcription"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatalw("Error initializing database", "error", err)
	}
	if err := utils.Migrate(db); err != nil {
		logger.Fatalw("Error migrating database", "error", err)
	}

	cipher, err := utils.NewTokenCipher(cfg.WKTokenEncryptionKey)
	if err != nil {
		logger.Fatalw("Error initializing token cipher", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := transcription.NewKagomeReader()
	if err := reader.Warm(); err != nil {
		logger.Warnw("Reading dictionary unavailable, readings will be empty", "error", err)
	}

	pipeline, closePipeline, err := transcription.NewFromConfig(ctx, cfg, reader, logger)
	if err != nil {
		logger.Fatalw("Error initializing transcription", "error", err)
	}
	defer closePipeline()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
		// multipart overhead on top of the largest accepted recording
		BodyLimit: cfg.MaxAudioBytes + 1<<20,
	})

	// Middleware
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, routes.Services{
		Transcriber: pipeline,
		Cipher:      cipher,
		Engines:     pipeline.Engines(),
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		_ = app.Shutdown()
	}()

	// Start server
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("Server stopped", "error", err)
	}
}
