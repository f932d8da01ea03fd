// eapush replays recorded MetaTrader trade events from a JSON file
// against a running journal service, standing in for the EA during
// development and testing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/mtclient"
	"trade-journal-go/internal/webhook"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "base URL of the journal service")
		token   = flag.String("token", "", "webhook token of the broker connection")
		file    = flag.String("file", "", "JSON file holding an array of trade events")
	)
	flag.Parse()

	if *token == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: eapush -token <webhook-token> -file <events.json> [-url <base-url>]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("Failed to read events file", zap.Error(err))
	}
	var events []webhook.TradeEvent
	if err := json.Unmarshal(data, &events); err != nil {
		log.Fatal("Events file is not a JSON array of trade events", zap.Error(err))
	}

	client := mtclient.NewPushClient(*baseURL, *token, &cfg.Push, log)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		log.Fatal("Service is not reachable", zap.Error(err))
	}

	var pushed, duplicates, failed int
	for i := range events {
		result, err := client.PushTrade(ctx, &events[i])
		if err != nil {
			failed++
			log.Error("Push failed", zap.Int64("ticket", events[i].Ticket), zap.Error(err))
			continue
		}
		if result.Duplicate {
			duplicates++
			log.Info("Duplicate acknowledged",
				zap.Int64("ticket", events[i].Ticket),
				zap.Uint("trade_id", result.TradeID),
			)
			continue
		}
		pushed++
		log.Info("Trade ingested",
			zap.Int64("ticket", events[i].Ticket),
			zap.Uint("trade_id", result.TradeID),
			zap.Int64("processing_ms", result.ProcessingTimeMs),
		)
	}

	log.Info("Replay finished",
		zap.Int("pushed", pushed),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		os.Exit(1)
	}
}
