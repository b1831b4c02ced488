package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aluiziolira/go-scrape-cards/api"
	"github.com/aluiziolira/go-scrape-cards/config"
	"github.com/aluiziolira/go-scrape-cards/pipeline"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <pricecharting_url>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s https://www.pricecharting.com/game/pokemon-surging-sparks/latias-ex-239\n", os.Args[0])
		os.Exit(1)
	}
	url := os.Args[1]

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if !pipeline.IsPriceChartingURL(url) {
		fmt.Fprintln(os.Stderr, "error: please provide a valid PriceCharting URL")
		os.Exit(1)
	}

	client, err := api.New(config.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Fetching card pricing information...")
	fmt.Println(client.GetCardPricesJSON(context.Background(), url))
}
