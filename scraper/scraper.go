// Package scraper fetches PriceCharting pages over a reusable colly
// session and hands them to the parser.
package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-cards/config"
	"github.com/aluiziolira/go-scrape-cards/models"
	"github.com/aluiziolira/go-scrape-cards/parser"
)

const captureKey = "capture"

// capture collects the outcome of a single fetch. The collector runs
// synchronously, so by the time Request returns the handlers have filled
// it in.
type capture struct {
	status int
	body   []byte
	start  time.Time
}

// Scraper owns the HTTP session used for all page fetches.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics
}

// NewScraper builds a scraper configured from cfg. Certificate
// validation is disabled for the target site.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	s := &Scraper{
		cfg:       cfg,
		collector: collector,
		Metrics:   NewMetrics(),
	}
	s.configureHandlers()
	return s, nil
}

// WithTransport swaps the underlying round tripper. Used by tests to
// inject a mock transport.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.collector.WithTransport(rt)
}

func (s *Scraper) configureHandlers() {
	s.collector.OnRequest(func(r *colly.Request) {
		if c, ok := r.Ctx.GetAny(captureKey).(*capture); ok {
			c.start = time.Now()
		}
		s.Metrics.IncRequest("started")
	})

	s.collector.OnResponse(func(r *colly.Response) {
		c, ok := r.Ctx.GetAny(captureKey).(*capture)
		if !ok {
			return
		}
		c.status = r.StatusCode
		c.body = r.Body
		if !c.start.IsZero() {
			s.Metrics.ObserveDuration(time.Since(c.start))
		}
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		if r == nil {
			return
		}
		if c, ok := r.Ctx.GetAny(captureKey).(*capture); ok {
			c.status = r.StatusCode
		}
	})
}

// ScrapeOne fetches one URL and extracts its card record. Transport
// failures, non-success statuses, and a missing card name all fail the
// call; there are no retries.
func (s *Scraper) ScrapeOne(ctx context.Context, url string) (*models.CardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &capture{}
	cctx := colly.NewContext()
	cctx.Put(captureKey, c)

	if err := s.collector.Request(http.MethodGet, url, nil, cctx, nil); err != nil {
		classified := classifyError(err, c.status)
		s.Metrics.IncError(ErrorLabel(classified))
		slog.Error("request failed",
			slog.String("url", url),
			slog.Int("status", c.status),
			slog.Any("error", classified),
		)
		return nil, classified
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(c.body))
	if err != nil {
		s.Metrics.IncError("parse")
		return nil, fmt.Errorf("parse html: %w", err)
	}

	record, err := parser.ExtractCard(doc)
	if err != nil {
		s.Metrics.IncError(ErrorLabel(err))
		slog.Warn("extraction failed", slog.String("url", url), slog.Any("error", err))
		return nil, err
	}
	record.SourceURL = url

	s.Metrics.IncCards()
	slog.Debug("card scraped",
		slog.String("name", record.CardName),
		slog.String("ungraded", parser.FormatPrice(record.UngradedPrice)),
		slog.String("psa10", parser.FormatPrice(record.PSA10Price)),
	)
	return record, nil
}
