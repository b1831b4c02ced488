package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-cards/config"
	"github.com/aluiziolira/go-scrape-cards/models"
	"github.com/aluiziolira/go-scrape-cards/pipeline"
	"github.com/aluiziolira/go-scrape-cards/scraper"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <input_csv> <output_csv> [url_column] [delay_seconds]

Arguments:
  input_csv      Path to CSV file containing URLs
  output_csv     Path for output CSV file
  url_column     Column name containing URLs (default: "url")
  delay_seconds  Delay between requests in seconds (default: 1.0)

Flags:
`, os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExample:\n  %s cards.csv results.csv url 1.5\n", os.Args[0])
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging")
	timeoutSec := flag.Float64("timeout", 10, "Request timeout in seconds")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.InputFile = args[0]
	cfg.OutputFile = args[1]
	cfg.Timeout = time.Duration(*timeoutSec * float64(time.Second))
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if seconds, ok, err := config.EnvFloat("SCRAPE_CARDS_DELAY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPE_CARDS_DELAY: %v\n", err)
		os.Exit(1)
	} else if ok {
		cfg.Delay = time.Duration(seconds * float64(time.Second))
	}

	if len(args) > 2 {
		cfg.URLColumn = args[2]
	}
	if len(args) > 3 {
		seconds, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid delay %q: %v\n", args[3], err)
			os.Exit(1)
		}
		cfg.Delay = time.Duration(seconds * float64(time.Second))
	}
	if value, ok := config.EnvString("SCRAPE_CARDS_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := config.EnvString("SCRAPE_CARDS_METRICS_ADDR"); ok && cfg.MetricsAddr == "" {
		cfg.MetricsAddr = value
	}

	logger := newLogger(cfg.Verbose)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if _, err := os.Stat(cfg.InputFile); err != nil {
		fmt.Fprintf(os.Stderr, "input file does not exist: %s\n", cfg.InputFile)
		os.Exit(1)
	}

	urls, skipped, err := pipeline.ReadURLs(cfg.InputFile, cfg.URLColumn)
	if err != nil {
		slog.Error("reading input file", slog.Any("error", err))
		os.Exit(1)
	}
	for _, url := range skipped {
		slog.Warn("skipping invalid url", slog.String("url", url))
	}
	if len(urls) == 0 {
		fmt.Fprintf(os.Stderr, "no URLs found in %s\n", cfg.InputFile)
		return
	}

	slog.Info("starting batch",
		slog.Int("urls", len(urls)),
		slog.Duration("delay", cfg.Delay),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.NewProcessor(s, cfg.Delay)
	if isTerminal(os.Stderr) {
		p.SetProgressOutput(os.Stderr)
	}

	result := p.Run(context.Background(), urls)

	if err := writer.Write(result.Rows); err != nil {
		slog.Error("writing output", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("closing writer", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile)

	if result.Summary.Success == 0 && result.Summary.Failed > 0 {
		os.Exit(1)
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.BatchResult, outputFile string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Processing complete")
	t.AppendRows([]table.Row{
		{"Total URLs", result.Summary.Total},
		{"Successful", result.Summary.Success},
		{"Failed", result.Summary.Failed},
		{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond)},
		{"Output", outputFile},
	})
	if len(result.ErrorsByType) > 0 {
		t.AppendRow(table.Row{"Error types", fmt.Sprintf("%v", result.ErrorsByType)})
	}
	t.Render()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
