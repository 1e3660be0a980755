// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

const (
	DefaultBaseURL       = "https://www.alphavantage.co/query"
	DefaultTimeout       = 30 * time.Second
	DefaultRatePerMinute = 5 // free tier allowance per key

	funcIncomeStatement = "INCOME_STATEMENT"
	funcBalanceSheet    = "BALANCE_SHEET"
	funcCashFlow        = "CASH_FLOW"
	funcOverview        = "OVERVIEW"
	funcGlobalQuote     = "GLOBAL_QUOTE"
	funcListingStatus   = "LISTING_STATUS"
)

// Client implements the FinancialDataProvider interface against Alpha Vantage
type Client struct {
	baseURL    string
	keys       *KeyRing
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRatePerMinute sets the request rate limit
func WithRatePerMinute(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client. Keys are supplied through the
// ring; the client rotates to the next key when a response carries a
// rate-limit notice.
func NewClient(keys *KeyRing, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		keys:    keys,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/DefaultRatePerMinute), 1),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider's registry name.
func (c *Client) Name() string {
	return "alphavantage"
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// fetch performs a rate-limited GET request, rotating through the key ring
// when Alpha Vantage answers with a throttle notice. The free tier reports
// exhaustion as HTTP 200 with a Note or Information body, never a 429.
func (c *Client) fetch(ctx context.Context, function string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)

	attempts := c.keys.Size()
	if attempts == 0 {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "no API keys configured", Function: function}
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		key := c.keys.Current()
		params.Set("apikey", key)
		reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		c.logger.Debug().Str("function", function).Msg("Alpha Vantage API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
				Function:   function,
			}
		}

		notice := parseNotice(body)
		if notice.Note != "" || notice.Information != "" {
			msg := notice.Note
			if msg == "" {
				msg = notice.Information
			}
			c.logger.Warn().
				Str("function", function).
				Str("key", keyHint(key)).
				Str("notice", msg).
				Msg("Alpha Vantage rate limited, rotating key")
			c.keys.Rotate()
			continue
		}
		if notice.ErrorMessage != "" {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    notice.ErrorMessage,
				Function:   function,
			}
		}

		return body, nil
	}

	return nil, &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    fmt.Sprintf("rate limit reached on all %d API keys", attempts),
		Function:   function,
	}
}

// parseNotice extracts throttle and error notices from a JSON body. CSV
// responses pass straight through.
func parseNotice(body []byte) apiNotice {
	var notice apiNotice
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return notice
	}
	_ = json.Unmarshal(trimmed, &notice)
	return notice
}

// getJSON performs a fetch and decodes the JSON body into result.
func (c *Client) getJSON(ctx context.Context, function string, params url.Values, result interface{}) error {
	body, err := c.fetch(ctx, function, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func symbolParams(ticker string) url.Values {
	params := url.Values{}
	params.Set("symbol", ticker)
	return params
}

// FetchStatements retrieves the income statement, balance sheet and cash flow
// reports for a ticker and merges them by fiscal date into annual periods,
// ordered oldest to newest and trimmed to the most recent years.
func (c *Client) FetchStatements(ctx context.Context, ticker string, years int) (*models.FinancialStatement, error) {
	var income, balance, cashflow statementResponse
	if err := c.getJSON(ctx, funcIncomeStatement, symbolParams(ticker), &income); err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, funcBalanceSheet, symbolParams(ticker), &balance); err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, funcCashFlow, symbolParams(ticker), &cashflow); err != nil {
		return nil, err
	}

	periods := make(map[string]*models.FinancialPeriod)
	ensure := func(fiscalDate string) *models.FinancialPeriod {
		p, ok := periods[fiscalDate]
		if !ok {
			p = &models.FinancialPeriod{FiscalDate: fiscalDate}
			periods[fiscalDate] = p
		}
		return p
	}

	for _, r := range income.AnnualReports {
		if r.FiscalDateEnding == "" {
			continue
		}
		p := ensure(r.FiscalDateEnding)
		p.NetIncome = float64(r.NetIncome)
		p.Revenue = float64(r.TotalRevenue)
		// income statement D&A is the fallback; the cash flow figure wins below
		if p.Depreciation == 0 {
			p.Depreciation = float64(r.DepreciationAndAmortization)
		}
	}
	for _, r := range balance.AnnualReports {
		if r.FiscalDateEnding == "" {
			continue
		}
		p := ensure(r.FiscalDateEnding)
		p.CurrentAssets = float64(r.TotalCurrentAssets)
		p.CurrentLiabilities = float64(r.TotalCurrentLiabilities)
		p.TotalLiabilities = float64(r.TotalLiabilities)
		p.TotalDebt = float64(r.ShortTermDebt) + float64(r.LongTermDebt)
		p.ShareholderEquity = float64(r.TotalShareholderEquity)
		p.Intangibles = float64(r.IntangibleAssets)
		p.Goodwill = float64(r.Goodwill)
		p.SharesOutstanding = float64(r.CommonStockSharesOutstanding)
	}
	for _, r := range cashflow.AnnualReports {
		if r.FiscalDateEnding == "" {
			continue
		}
		p := ensure(r.FiscalDateEnding)
		p.OperatingCashFlow = float64(r.OperatingCashflow)
		p.CapEx = float64(r.CapitalExpenditures)
		p.DividendsPaid = float64(r.DividendPayout)
		if r.DepreciationDepletionAndAmortization != 0 {
			p.Depreciation = float64(r.DepreciationDepletionAndAmortization)
		}
	}

	dates := make([]string, 0, len(periods))
	for d := range periods {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if years > 0 && len(dates) > years {
		dates = dates[len(dates)-years:]
	}

	stmt := &models.FinancialStatement{
		Ticker:  ticker,
		Periods: make([]models.FinancialPeriod, 0, len(dates)),
	}
	for _, d := range dates {
		stmt.Periods = append(stmt.Periods, *periods[d])
	}

	c.logger.Debug().
		Str("ticker", ticker).
		Int("periods", len(stmt.Periods)).
		Msg("Fetched financial statements")

	return stmt, nil
}

// FetchProfile retrieves descriptive company data from the OVERVIEW endpoint.
func (c *Client) FetchProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	var overview overviewResponse
	if err := c.getJSON(ctx, funcOverview, symbolParams(ticker), &overview); err != nil {
		return nil, err
	}

	// unknown tickers come back as an empty object
	if overview.Symbol == "" && overview.Name == "" {
		return nil, fmt.Errorf("no overview data for %s", ticker)
	}

	return &models.CompanyProfile{
		Ticker:    ticker,
		Name:      overview.Name,
		Exchange:  overview.Exchange,
		Sector:    overview.Sector,
		Industry:  overview.Industry,
		MarketCap: float64(overview.MarketCapitalization),
		CIK:       overview.CIK,
	}, nil
}

// FetchQuote retrieves the latest price from the GLOBAL_QUOTE endpoint.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	var quote globalQuoteResponse
	if err := c.getJSON(ctx, funcGlobalQuote, symbolParams(ticker), &quote); err != nil {
		return nil, err
	}

	price := float64(quote.Quote.Price)
	if price <= 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	return &models.Quote{
		Ticker: ticker,
		Price:  price,
		AsOf:   quote.Quote.LatestTradingDay,
	}, nil
}

// ListExchangeTickers retrieves active common stocks for an exchange from the
// LISTING_STATUS endpoint, which returns CSV rather than JSON.
func (c *Client) ListExchangeTickers(ctx context.Context, exchange string) ([]string, error) {
	params := url.Values{}
	params.Set("state", "active")

	body, err := c.fetch(ctx, funcListingStatus, params)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing CSV: %w", err)
	}

	// columns: symbol, name, exchange, assetType, ipoDate, delistingDate, status
	tickers := make([]string, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 4 {
			continue
		}
		symbol := strings.TrimSpace(rec[0])
		if symbol == "" || strings.ContainsAny(symbol, ".^$") {
			continue
		}
		if !strings.EqualFold(rec[2], exchange) || !strings.EqualFold(rec[3], "Stock") {
			continue
		}
		tickers = append(tickers, symbol)
	}

	c.logger.Debug().
		Str("exchange", exchange).
		Int("tickers", len(tickers)).
		Msg("Fetched exchange listing")

	return tickers, nil
}

// Verify interface compliance
var _ interfaces.FinancialDataProvider = (*Client)(nil)
