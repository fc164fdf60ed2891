package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Prabal0202/VittaManthan/internal/answer"
	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/llm"
	"github.com/Prabal0202/VittaManthan/internal/logger"
	"github.com/Prabal0202/VittaManthan/internal/querycache"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

// Asks a one-shot question over a local JSON transactions file, bypassing
// the HTTP server. Useful for trying out filter extraction and mode
// classification against a sample export.
func main() {
	_ = godotenv.Load()
	log := logger.New()

	var (
		file     = flag.String("file", "", "Path to a JSON file holding an array of transactions")
		question = flag.String("question", "", "Question to ask about the transactions")
		showAll  = flag.Bool("show-all", false, "Include paginated matching transactions in the output")
	)
	flag.Parse()

	if *file == "" || *question == "" {
		log.Fatal().Msg("Error: --file and --question are required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read transactions file")
	}

	var txns []domain.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse transactions file")
	}
	if len(txns) == 0 {
		log.Fatal().Msg("Transactions file is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := llm.NewGenAIClient(ctx, llm.DefaultModelName, llm.DefaultEmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Generation client unavailable; set GEMINI_API_KEY")
	}

	index, err := vectorindex.NewEmbeddingBuilder(client).Build(ctx, txns)
	if err != nil {
		log.Warn().Err(err).Msg("Index construction failed; semantic search disabled")
	}

	orchestrator := answer.NewOrchestrator(nil, querycache.New(0), client, nil, log)

	result, err := orchestrator.ResolveInline(ctx, answer.ResolveRequest{
		Question: *question,
		ShowAll:  *showAll,
	}, txns, index)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve question")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render result")
	}
	fmt.Println(string(out))
}
