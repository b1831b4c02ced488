// Package api exposes the single-URL lookup surface: one PriceCharting
// URL in, a card record or a structured error payload out.
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aluiziolira/go-scrape-cards/config"
	"github.com/aluiziolira/go-scrape-cards/models"
	"github.com/aluiziolira/go-scrape-cards/pipeline"
	"github.com/aluiziolira/go-scrape-cards/scraper"
)

// Client wraps a scraper for one-shot price lookups.
type Client struct {
	scraper *scraper.Scraper
}

// New builds a lookup client from cfg.
func New(cfg *config.Config) (*Client, error) {
	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{scraper: s}, nil
}

// NewWithScraper wraps an existing scraper, sharing its session.
func NewWithScraper(s *scraper.Scraper) *Client {
	return &Client{scraper: s}
}

// errorPayload is the JSON shape returned for failed lookups.
type errorPayload struct {
	Error string `json:"error"`
	URL   string `json:"url"`
}

// GetCardPrices fetches pricing information for one PriceCharting URL.
func (c *Client) GetCardPrices(ctx context.Context, url string) (*models.CardRecord, error) {
	if !pipeline.IsPriceChartingURL(url) {
		return nil, fmt.Errorf("not a pricecharting.com url: %s", url)
	}
	return c.scraper.ScrapeOne(ctx, url)
}

// GetCardPricesJSON returns the lookup result as indented JSON. Failures
// produce an {error, url} payload instead of an error return so the
// output is always printable.
func (c *Client) GetCardPricesJSON(ctx context.Context, url string) string {
	record, err := c.GetCardPrices(ctx, url)
	if err != nil {
		data, merr := json.MarshalIndent(errorPayload{Error: err.Error(), URL: url}, "", "  ")
		if merr != nil {
			return fmt.Sprintf(`{"error": %q, "url": %q}`, err.Error(), url)
		}
		return string(data)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		data, _ = json.MarshalIndent(errorPayload{Error: err.Error(), URL: url}, "", "  ")
		return string(data)
	}
	return string(data)
}
