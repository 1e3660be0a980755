// Package interfaces defines service contracts for Graham
package interfaces

import (
	"context"

	"github.com/bobmcallan/graham/internal/models"
)

// ScreenerService runs the end-to-end screen: universe resolution,
// statement fetch, evaluation, ranking and reporting.
type ScreenerService interface {
	// Run executes a full screen and writes reports per options.
	Run(ctx context.Context, options ScreenRunOptions) (*models.BatchResult, error)

	// ScreenTickers evaluates an explicit ticker list without touching the
	// configured universe or writing reports.
	ScreenTickers(ctx context.Context, tickers []string) (*models.BatchResult, error)

	// ResolveUniverse returns the tickers a Run with these options would
	// screen, in screening order.
	ResolveUniverse(ctx context.Context, options ScreenRunOptions) ([]string, error)
}

// ScreenRunOptions configures one screening run. Zero values fall back to
// the loaded configuration.
type ScreenRunOptions struct {
	Tickers      []string // explicit universe, highest priority
	TickerFile   string   // CSV universe
	Exchange     string   // provider listing universe
	SampleSize   int      // random sample; 0 screens everything
	Seed         int64    // sampling seed
	MinMarketCap float64  // universe pre-filter
	DryRun       bool     // resolve and plan only, no fetch or reports
	TopN         int      // detailed reports for the top N ranked
}

// ReportWriter renders and persists screen outputs.
type ReportWriter interface {
	// WriteSummary writes the ranking summary as CSV and JSON.
	WriteSummary(result *models.BatchResult, profiles map[string]*models.CompanyProfile) error

	// WriteTickerReport writes one detailed Markdown report with its chart.
	WriteTickerReport(report *models.TickerReport) error
}
