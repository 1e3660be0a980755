// Package filedata provides a file-backed financial data provider for
// offline runs and fixtures
package filedata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

// document is the on-disk shape of one ticker: statement history plus
// optional profile and quote in a single JSON file.
type document struct {
	Ticker  string                   `json:"ticker"`
	Profile *models.CompanyProfile   `json:"profile,omitempty"`
	Quote   *models.Quote            `json:"quote,omitempty"`
	Periods []models.FinancialPeriod `json:"periods"`
}

// Client reads ticker documents from a directory, one <TICKER>.json per
// ticker. It implements the same provider interface as the API clients so
// screens can run against local fixtures.
type Client struct {
	dir    string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a file-backed provider rooted at dir
func NewClient(dir string, opts ...ClientOption) *Client {
	c := &Client{
		dir:    dir,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider's registry name.
func (c *Client) Name() string {
	return "file"
}

func (c *Client) load(ticker string) (*document, error) {
	path := filepath.Join(c.dir, strings.ToUpper(ticker)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no data file for %s", ticker)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Ticker == "" {
		doc.Ticker = strings.ToUpper(ticker)
	}
	return &doc, nil
}

// FetchStatements loads the ticker document and returns its periods, oldest
// first, trimmed to the most recent years.
func (c *Client) FetchStatements(ctx context.Context, ticker string, years int) (*models.FinancialStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := c.load(ticker)
	if err != nil {
		return nil, err
	}

	periods := make([]models.FinancialPeriod, len(doc.Periods))
	copy(periods, doc.Periods)
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].FiscalDate < periods[j].FiscalDate
	})
	if years > 0 && len(periods) > years {
		periods = periods[len(periods)-years:]
	}

	return &models.FinancialStatement{
		Ticker:  doc.Ticker,
		Periods: periods,
	}, nil
}

// FetchProfile returns the document's embedded profile.
func (c *Client) FetchProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := c.load(ticker)
	if err != nil {
		return nil, err
	}
	if doc.Profile == nil {
		return nil, fmt.Errorf("no profile data for %s", ticker)
	}

	profile := *doc.Profile
	if profile.Ticker == "" {
		profile.Ticker = doc.Ticker
	}
	return &profile, nil
}

// FetchQuote returns the document's embedded quote.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := c.load(ticker)
	if err != nil {
		return nil, err
	}
	if doc.Quote == nil || doc.Quote.Price <= 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	quote := *doc.Quote
	if quote.Ticker == "" {
		quote.Ticker = doc.Ticker
	}
	return &quote, nil
}

// ListExchangeTickers returns every ticker in the directory, sorted. The
// exchange argument is ignored; file universes are already curated.
func (c *Client) ListExchangeTickers(ctx context.Context, exchange string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", c.dir, err)
	}

	tickers := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		tickers = append(tickers, strings.ToUpper(strings.TrimSuffix(name, ".json")))
	}
	sort.Strings(tickers)

	return tickers, nil
}

// Verify interface compliance
var _ interfaces.FinancialDataProvider = (*Client)(nil)
