// Command seed creates the starter pronunciation challenges.
package main

import (
	"context"
	"flag"
	"log"

	"kotoba/backend/config"
	"kotoba/backend/seed"
	"kotoba/backend/transcription"
	"kotoba/backend/utils"
)

func main() {
	n := flag.Int("challenges", seed.DefaultChallenges, "number of Basics challenges")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger, err := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatalw("Error initializing database", "error", err)
	}
	if err := utils.Migrate(db); err != nil {
		logger.Fatalw("Error migrating database", "error", err)
	}

	stats, err := seed.Run(context.Background(), db, *n, transcription.NewKagomeReader(), logger)
	if err != nil {
		logger.Fatalw("Seeding failed", "error", err)
	}
	logger.Infow("Seeded", "challenges", stats.Challenges, "sentences", stats.Sentences)
}
