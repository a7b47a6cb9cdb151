// Package scraper is a thin client for the lead-scraping service.
// The service itself runs elsewhere; this client only asks it for
// leads in a niche and set of cities.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

const requestTimeout = 60 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

type scrapeRequest struct {
	Niche    string   `json:"niche"`
	Cities   []string `json:"cities"`
	MaxLeads int      `json:"max_leads"`
}

type scrapeResponse struct {
	Leads []model.Lead `json:"leads"`
}

// ScrapeLeads asks the scraping service for up to maxLeads businesses
// in the given niche and cities.
func (c *Client) ScrapeLeads(ctx context.Context, niche string, cities []string, maxLeads int) ([]model.Lead, error) {
	body, err := json.Marshal(scrapeRequest{Niche: niche, Cities: cities, MaxLeads: maxLeads})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scrape request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper returned status %d", resp.StatusCode)
	}
	var out scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode scrape response: %w", err)
	}
	c.logger.Debug("scraped leads",
		zap.String("niche", niche),
		zap.Int("count", len(out.Leads)))
	return out.Leads, nil
}
