package main

import (
	"context"

	"orca/internal/config"
	"orca/internal/database"
	"orca/internal/export"
	"orca/internal/importer"
	"orca/internal/ingest"
	"orca/internal/llm"
	"orca/internal/mailbox"
	"orca/internal/pipeline"
	"orca/internal/server"
	"orca/internal/trello"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().Msg("Database connection established successfully")

	store := database.NewStore(db)
	if err := store.CreateTables(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create tables")
	}

	// Pipeline stages
	normalizer := ingest.NewNormalizer(mailbox.NewIMAPClient(), store, ingest.Options{
		Addr:     cfg.IMAPAddr(),
		User:     cfg.EmailUser,
		Password: cfg.EmailPassword,
		Mailbox:  cfg.IMAPMailbox,
	}, logger)
	extractor := llm.NewExtractor(store, llm.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAITimeout), logger)
	orderImporter := importer.NewImporter(store, logger)
	runner := pipeline.New(normalizer, extractor, orderImporter, logger)

	// Task-board export
	board := trello.NewClient(cfg.TrelloAPIKey, cfg.TrelloToken, cfg.TrelloListID)
	exporter := export.NewExporter(store, board, logger)

	// Create and initialize server
	srv := server.New(cfg, db, store, runner, exporter, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
