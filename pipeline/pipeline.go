package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/aluiziolira/go-scrape-cards/models"
	"github.com/aluiziolira/go-scrape-cards/parser"
	"github.com/aluiziolira/go-scrape-cards/scraper"
)

// Processor drives the batch pass: one fetch per URL, strictly
// sequential, with a politeness delay between requests. Every URL yields
// exactly one output row in input order; per-item failures are recorded
// in the row, never propagated.
type Processor struct {
	scraper     *scraper.Scraper
	delay       time.Duration
	progressOut io.Writer
}

// NewProcessor builds a batch processor around an existing scraper.
func NewProcessor(s *scraper.Scraper, delay time.Duration) *Processor {
	return &Processor{
		scraper: s,
		delay:   delay,
	}
}

// SetProgressOutput enables a progress tracker rendered to w.
func (p *Processor) SetProgressOutput(w io.Writer) {
	p.progressOut = w
}

// Run processes urls in order and returns the collected rows plus a
// summary. The delay is applied after every URL except the last.
func (p *Processor) Run(ctx context.Context, urls []string) *models.BatchResult {
	result := &models.BatchResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	var pw progress.Writer
	var tracker *progress.Tracker
	if p.progressOut != nil && len(urls) > 0 {
		pw = progress.NewWriter()
		pw.SetOutputWriter(p.progressOut)
		pw.SetAutoStop(true)
		pw.SetTrackerPosition(progress.PositionRight)
		pw.SetUpdateFrequency(100 * time.Millisecond)
		tracker = &progress.Tracker{
			Message: "Processing URLs",
			Total:   int64(len(urls)),
			Units:   progress.UnitsDefault,
		}
		pw.AppendTracker(tracker)
		go pw.Render()
	}

	failed := 0
	for i, url := range urls {
		row, label := p.scrapeRow(ctx, url)
		result.Rows = append(result.Rows, row)
		if label != "" {
			failed++
			result.ErrorsByType[label]++
		}
		if tracker != nil {
			tracker.Increment(1)
		}

		if i < len(urls)-1 && p.delay > 0 {
			time.Sleep(p.delay)
		}
	}

	if tracker != nil {
		tracker.MarkAsDone()
		for pw.IsRenderInProgress() {
			time.Sleep(5 * time.Millisecond)
		}
	}

	result.EndTime = time.Now()
	result.Summary = models.BatchSummary{
		Total:   len(urls),
		Success: len(urls) - failed,
		Failed:  failed,
	}
	return result
}

// scrapeRow converts one URL into its output row. A non-empty label
// marks the row as failed. Panics inside a single URL's processing are
// recovered here so they cannot unwind the batch loop.
func (p *Processor) scrapeRow(ctx context.Context, url string) (row *models.OutputRow, label string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while processing url", slog.String("url", url), slog.Any("panic", r))
			row = &models.OutputRow{
				Link: url,
				Name: fmt.Sprintf("ERROR: %v", r),
			}
			label = "panic"
		}
	}()

	record, err := p.scraper.ScrapeOne(ctx, url)
	if err != nil {
		return &models.OutputRow{
			Link: url,
			Name: "ERROR",
		}, scraper.ErrorLabel(err)
	}

	slog.Info("card processed",
		slog.String("name", record.CardName),
		slog.String("ungraded", parser.FormatPrice(record.UngradedPrice)),
		slog.String("psa10", parser.FormatPrice(record.PSA10Price)),
	)
	return &models.OutputRow{
		Link:          url,
		Name:          record.CardName,
		UngradedPrice: parser.FormatPrice(record.UngradedPrice),
		PSA10Price:    parser.FormatPrice(record.PSA10Price),
	}, ""
}
