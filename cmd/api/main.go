package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Prabal0202/VittaManthan/internal/answer"
	"github.com/Prabal0202/VittaManthan/internal/api"
	"github.com/Prabal0202/VittaManthan/internal/api/handlers"
	"github.com/Prabal0202/VittaManthan/internal/archive"
	"github.com/Prabal0202/VittaManthan/internal/chathistory"
	"github.com/Prabal0202/VittaManthan/internal/config"
	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/dataset/bigquery"
	"github.com/Prabal0202/VittaManthan/internal/dataset/inmemory"
	"github.com/Prabal0202/VittaManthan/internal/llm"
	"github.com/Prabal0202/VittaManthan/internal/logger"
	"github.com/Prabal0202/VittaManthan/internal/querycache"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	// Generation collaborator. A missing key degrades the service to
	// ingestion and status endpoints instead of refusing to start.
	var gen llm.Generator
	var builder vectorindex.Builder
	client, err := llm.NewGenAIClient(ctx, cfg.GeminiModel, cfg.EmbeddingModel)
	if err != nil {
		log.Warn().Err(err).Msg("Generation client unavailable - queries will return 503")
	} else {
		gen = client
		builder = vectorindex.NewEmbeddingBuilder(client)
	}

	// Durable tier. BigQuery when configured, in-process otherwise.
	var table dataset.DurableTable
	if cfg.BigQueryProject != "" {
		bq, err := bigquery.New(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery table")
		}
		defer bq.Close()
		table = bq
		log.Info().
			Str("project", cfg.BigQueryProject).
			Str("dataset", cfg.BigQueryDataset).
			Str("table", cfg.BigQueryTable).
			Msg("Using BigQuery durable storage")
	} else {
		table = inmemory.NewTable()
		log.Warn().Msg("No BIGQUERY_PROJECT configured - datasets will not survive restarts")
	}

	// Chat history journal. Same durable selection as the dataset tier.
	var history chathistory.Store
	if cfg.BigQueryProject != "" {
		bqHistory, err := chathistory.NewBigQueryStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryHistoryTable)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery chat history store")
		}
		defer bqHistory.Close()
		history = bqHistory
	} else {
		history = chathistory.NewMemoryStore()
		log.Warn().Msg("No BIGQUERY_PROJECT configured - chat history will not survive restarts")
	}

	var archiver *archive.Archiver
	if cfg.GCSBucket != "" {
		archiver, err = archive.New(ctx, cfg.GCSBucket)
		if err != nil {
			log.Warn().Err(err).Msg("Ingest archiving disabled")
			archiver = nil
		} else {
			defer archiver.Close()
		}
	} else {
		log.Warn().Msg("No GCS bucket configured - ingest payloads will not be archived")
	}

	store := dataset.NewStore(table, builder, log)
	defer store.Close()

	cache := querycache.New(cfg.CacheTTL)
	orchestrator := answer.NewOrchestrator(store, cache, gen, history, log)

	handler := handlers.NewQueryHandler(store, builder, orchestrator, archiver, history, log)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
