package main

import (
	"log"
	"net/http"

	"github.com/ishoratech/ishoratech-backend/internal/api"
	"github.com/ishoratech/ishoratech-backend/internal/bot"
	"github.com/ishoratech/ishoratech-backend/internal/config"
	"github.com/ishoratech/ishoratech-backend/internal/database"
	"github.com/ishoratech/ishoratech-backend/internal/intake"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config:", err)
	}

	logger, err := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	log.Printf("Running database migrations from %s", cfg.MigrationsPath)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	categoryRepo := database.NewCategoryRepository(db)
	videoRepo := database.NewVideoRepository(db)

	machine := intake.NewMachine(intake.NewSessionStore(), categoryRepo, videoRepo, logger)

	b, err := bot.New(cfg, machine, videoRepo, logger)
	if err != nil {
		log.Fatal("Failed to initialize bot:", err)
	}
	go b.Start()

	app := &api.App{
		VideoRepo: videoRepo,
		Log:       logger,
	}
	router := api.NewRouter(app)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Database path: %s", cfg.DBPath)
	log.Printf("Authorized operators: %d", len(cfg.AdminIDs))

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
