// Package secedgar resolves SEC EDGAR filing references for audit trails.
// Only filing metadata and document links are fetched, never filing bodies.
package secedgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

const (
	DefaultSubmissionsURL = "https://data.sec.gov"
	DefaultTickerMapURL   = "https://www.sec.gov/files/company_tickers.json"
	DefaultArchivesURL    = "https://www.sec.gov/Archives"

	// SEC fair access policy requires a descriptive User-Agent with contact
	DefaultUserAgent = "graham-screener/1.0 (graham@example.com)"

	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 10 // requests per second, per SEC guidance
	DefaultRetryDelay = 10 * time.Second
)

// Client implements the FilingClient interface against EDGAR
type Client struct {
	submissionsURL string
	tickerMapURL   string
	archivesURL    string
	userAgent      string
	retryDelay     time.Duration
	httpClient     *http.Client
	logger         *common.Logger
	limiter        *rate.Limiter

	mu        sync.Mutex
	tickerCIK map[string]string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithSubmissionsURL sets the submissions base URL
func WithSubmissionsURL(u string) ClientOption {
	return func(c *Client) {
		c.submissionsURL = u
	}
}

// WithTickerMapURL sets the company tickers URL
func WithTickerMapURL(u string) ClientOption {
	return func(c *Client) {
		c.tickerMapURL = u
	}
}

// WithArchivesURL sets the archives base URL used for document links
func WithArchivesURL(u string) ClientOption {
	return func(c *Client) {
		c.archivesURL = u
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
		}
	}
}

// WithRetryDelay sets the wait before the single 429 retry
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EDGAR client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		submissionsURL: DefaultSubmissionsURL,
		tickerMapURL:   DefaultTickerMapURL,
		archivesURL:    DefaultArchivesURL,
		userAgent:      DefaultUserAgent,
		retryDelay:     DefaultRetryDelay,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an EDGAR API error
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDGAR API error: %s (status: %d, url: %s)", e.Message, e.StatusCode, e.URL)
}

// get performs a rate-limited GET with the SEC-required headers, retrying
// once after a delay when EDGAR answers 429.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	retried := false
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		c.logger.Debug().Str("url", reqURL).Msg("EDGAR request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && !retried {
			retried = true
			c.logger.Warn().Str("url", reqURL).Msg("EDGAR rate limit hit, waiting before retry")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
				URL:        reqURL,
			}
		}

		return body, nil
	}
}

// companyTickerEntry is one row of company_tickers.json.
type companyTickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// tickerMap lazily loads and caches the ticker-to-CIK mapping. The source
// file is about a megabyte, so one fetch serves the whole run.
func (c *Client) tickerMap(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickerCIK != nil {
		return c.tickerCIK, nil
	}

	body, err := c.get(ctx, c.tickerMapURL)
	if err != nil {
		return nil, err
	}

	// keyed by row index, not by CIK
	var entries map[string]companyTickerEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode company tickers: %w", err)
	}

	m := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.Ticker == "" {
			continue
		}
		m[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}

	c.tickerCIK = m
	c.logger.Debug().Int("companies", len(m)).Msg("Loaded EDGAR ticker map")
	return m, nil
}

// LookupCIK resolves a ticker to its zero-padded central index key.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	m, err := c.tickerMap(ctx)
	if err != nil {
		return "", err
	}

	cik, ok := m[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", fmt.Errorf("no CIK found for %s", ticker)
	}
	return cik, nil
}

// submissionsResponse is the subset of the EDGAR submissions payload used
// here. Filing attributes arrive as parallel arrays.
type submissionsResponse struct {
	CIK     string `json:"cik"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// RecentFilings retrieves recent filings of the given forms for a CIK,
// newest first. An empty forms list accepts every form; limit <= 0 means
// no limit.
func (c *Client) RecentFilings(ctx context.Context, cik string, forms []string, limit int) ([]models.Filing, error) {
	padded := padCIK(cik)
	reqURL := fmt.Sprintf("%s/submissions/CIK%s.json", c.submissionsURL, padded)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var subs submissionsResponse
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	// the archives path wants the unpadded CIK
	cikNum := subs.CIK
	if cikNum == "" {
		cikNum = strings.TrimLeft(padded, "0")
	}

	recent := subs.Filings.Recent
	n := len(recent.Form)
	if len(recent.FilingDate) < n {
		n = len(recent.FilingDate)
	}
	if len(recent.AccessionNumber) < n {
		n = len(recent.AccessionNumber)
	}
	if len(recent.PrimaryDocument) < n {
		n = len(recent.PrimaryDocument)
	}

	filings := make([]models.Filing, 0, n)
	for i := 0; i < n; i++ {
		if !formAllowed(recent.Form[i], forms) {
			continue
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		filings = append(filings, models.Filing{
			Form:            recent.Form[i],
			FilingDate:      recent.FilingDate[i],
			AccessionNumber: recent.AccessionNumber[i],
			DocumentURL:     fmt.Sprintf("%s/edgar/data/%s/%s/%s", c.archivesURL, cikNum, accession, recent.PrimaryDocument[i]),
		})
	}

	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].FilingDate > filings[j].FilingDate
	})
	if limit > 0 && len(filings) > limit {
		filings = filings[:limit]
	}

	return filings, nil
}

func formAllowed(form string, forms []string) bool {
	if len(forms) == 0 {
		return true
	}
	for _, f := range forms {
		if form == f {
			return true
		}
	}
	return false
}

// padCIK left-pads a CIK to the ten digits EDGAR URLs expect.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// Verify interface compliance
var _ interfaces.FilingClient = (*Client)(nil)
