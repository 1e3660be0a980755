// Package screener runs the end-to-end Graham screen
package screener

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
	"github.com/bobmcallan/graham/internal/screen"
)

// auditFilingLimit caps how many EDGAR references a report carries.
const auditFilingLimit = 8

// Service implements ScreenerService
type Service struct {
	provider   interfaces.FinancialDataProvider
	engine     *screen.Engine
	filings    interfaces.FilingClient
	commentary interfaces.CommentaryClient
	reports    interfaces.ReportWriter
	cfg        *common.Config
	logger     *common.Logger
}

// NewService creates a new screener service. The filing and commentary
// clients are optional; reports simply omit those sections when nil.
func NewService(
	provider interfaces.FinancialDataProvider,
	engine *screen.Engine,
	filings interfaces.FilingClient,
	commentary interfaces.CommentaryClient,
	reports interfaces.ReportWriter,
	cfg *common.Config,
	logger *common.Logger,
) *Service {
	return &Service{
		provider:   provider,
		engine:     engine,
		filings:    filings,
		commentary: commentary,
		reports:    reports,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes a full screen: resolve the universe, fetch statements and
// quotes, evaluate, then write the summary and the top-N detailed reports.
func (s *Service) Run(ctx context.Context, options interfaces.ScreenRunOptions) (*models.BatchResult, error) {
	opts := s.mergeOptions(options)

	tickers, err := s.ResolveUniverse(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("universe", len(tickers)).
		Str("provider", s.provider.Name()).
		Msg("Screening universe resolved")

	if opts.DryRun {
		s.logger.Info().Int("tickers", len(tickers)).Msg("Dry run: skipping fetch, evaluation and reports")
		return &models.BatchResult{Ranked: []models.ScreeningResult{}, Skipped: []models.SkippedTicker{}}, nil
	}

	inputs, profiles, preSkipped, err := s.fetchInputs(ctx, tickers, opts.MinMarketCap)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.EvaluateBatch(ctx, inputs, screen.WithWorkers(s.cfg.Provider.Workers))
	if err != nil {
		return nil, err
	}

	// Universe filters run before evaluation; fold their skips into the
	// batch log so the summary itemizes every excluded ticker.
	mergeSkips(result, preSkipped)

	if err := s.writeReports(ctx, result, profiles, opts.TopN); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Int("ranked", len(result.Ranked)).
		Int("skipped", len(result.Skipped)).
		Int("qualifying", countQualifying(result.Ranked)).
		Msg("Screen complete")

	return result, nil
}

// ScreenTickers evaluates an explicit ticker list without touching the
// configured universe or writing reports.
func (s *Service) ScreenTickers(ctx context.Context, tickers []string) (*models.BatchResult, error) {
	tickers = normalizeTickers(tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to screen")
	}

	inputs, _, preSkipped, err := s.fetchInputs(ctx, tickers, 0)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.EvaluateBatch(ctx, inputs, screen.WithWorkers(s.cfg.Provider.Workers))
	if err != nil {
		return nil, err
	}
	mergeSkips(result, preSkipped)

	return result, nil
}

// mergeOptions fills zero-valued options from the loaded configuration.
// Universe sources fall back as a group so a requested file or exchange is
// not overridden by a configured ticker list.
func (s *Service) mergeOptions(options interfaces.ScreenRunOptions) interfaces.ScreenRunOptions {
	if len(options.Tickers) == 0 && options.TickerFile == "" && options.Exchange == "" {
		options.Tickers = s.cfg.Universe.Tickers
		options.TickerFile = s.cfg.Universe.TickerFile
		options.Exchange = s.cfg.Universe.Exchange
	}
	if options.SampleSize == 0 {
		options.SampleSize = s.cfg.Universe.SampleSize
	}
	if options.Seed == 0 {
		options.Seed = s.cfg.Universe.Seed
	}
	if options.MinMarketCap == 0 {
		options.MinMarketCap = s.cfg.Universe.MinMarketCap
	}
	if options.TopN == 0 {
		options.TopN = s.cfg.Report.TopN
	}
	return options
}

// fetchOutcome carries one ticker's fetch results into the batch. skip is
// set when a universe filter excludes the ticker before evaluation.
type fetchOutcome struct {
	input   screen.BatchInput
	profile *models.CompanyProfile
	skip    *models.SkippedTicker
}

// fetchInputs fetches statements and quotes for every ticker with bounded
// concurrency. Fetch failures become per-ticker FetchErr entries rather
// than aborting the run; only context cancellation is fatal.
func (s *Service) fetchInputs(ctx context.Context, tickers []string, minMarketCap float64) ([]screen.BatchInput, map[string]*models.CompanyProfile, []models.SkippedTicker, error) {
	years := s.cfg.Provider.Years
	workers := s.cfg.Provider.Workers
	if workers <= 0 {
		workers = 4
	}

	outcomes := make([]fetchOutcome, len(tickers))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range tickers {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.fetchOne(ctx, tickers[i], years, minMarketCap)
		}(i)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	inputs := make([]screen.BatchInput, 0, len(tickers))
	profiles := make(map[string]*models.CompanyProfile)
	var skipped []models.SkippedTicker
	for i := range outcomes {
		o := &outcomes[i]
		if o.profile != nil {
			profiles[tickers[i]] = o.profile
		}
		if o.skip != nil {
			skipped = append(skipped, *o.skip)
			continue
		}
		inputs = append(inputs, o.input)
	}

	return inputs, profiles, skipped, nil
}

// fetchOne gathers one ticker's profile, statements and quote. The profile
// is only fetched when a market-cap floor needs it.
func (s *Service) fetchOne(ctx context.Context, ticker string, years int, minMarketCap float64) fetchOutcome {
	out := fetchOutcome{input: screen.BatchInput{Ticker: ticker}}

	if minMarketCap > 0 {
		profile, err := s.provider.FetchProfile(ctx, ticker)
		if err != nil {
			out.input.FetchErr = fmt.Errorf("profile: %w", err)
			return out
		}
		out.profile = profile
		if profile.MarketCap < minMarketCap {
			s.logger.Debug().
				Str("ticker", ticker).
				Float64("market_cap", profile.MarketCap).
				Msg("Ticker below market cap floor")
			out.skip = &models.SkippedTicker{
				Ticker: ticker,
				Reason: fmt.Sprintf("below market cap floor (%s < %s)", common.FormatMarketCap(profile.MarketCap), common.FormatMarketCap(minMarketCap)),
			}
			return out
		}
	}

	stmt, err := s.provider.FetchStatements(ctx, ticker, years)
	if err != nil {
		out.input.FetchErr = fmt.Errorf("statements: %w", err)
		return out
	}
	out.input.Stmt = stmt

	quote, err := s.provider.FetchQuote(ctx, ticker)
	if err != nil {
		out.input.FetchErr = fmt.Errorf("quote: %w", err)
		return out
	}
	out.input.Price = quote.Price

	return out
}

// writeReports persists the summary plus detailed reports for the top N
// ranked tickers. Audit trails and commentary are best effort; a failed
// report write is fatal.
func (s *Service) writeReports(ctx context.Context, result *models.BatchResult, profiles map[string]*models.CompanyProfile, topN int) error {
	if topN > len(result.Ranked) {
		topN = len(result.Ranked)
	}

	for i := 0; i < topN; i++ {
		r := &result.Ranked[i]

		profile := profiles[r.Ticker]
		if profile == nil {
			p, err := s.provider.FetchProfile(ctx, r.Ticker)
			if err != nil {
				s.logger.Warn().Str("ticker", r.Ticker).Err(err).Msg("Profile fetch failed, report will omit company details")
			} else {
				profile = p
				profiles[r.Ticker] = p
			}
		}

		audit := s.auditTrail(ctx, r.Ticker)

		var commentary string
		if s.commentary != nil && r.Qualifies {
			var filings []models.Filing
			if audit != nil {
				filings = audit.Filings
			}
			text, err := s.commentary.ScreenCommentary(ctx, r, profile, filings)
			if err != nil {
				s.logger.Warn().Str("ticker", r.Ticker).Err(err).Msg("Commentary generation failed")
			} else {
				commentary = text
			}
		}

		report := &models.TickerReport{
			Result:     r,
			Profile:    profile,
			AuditTrail: audit,
			Commentary: commentary,
			RunID:      result.RunID,
		}
		if err := s.reports.WriteTickerReport(report); err != nil {
			return fmt.Errorf("write report for %s: %w", r.Ticker, err)
		}
	}

	if err := s.reports.WriteSummary(result, profiles); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

// auditTrail collects EDGAR filing references for one ticker. Lookup
// failures are logged and leave the report without a trail.
func (s *Service) auditTrail(ctx context.Context, ticker string) *models.AuditTrail {
	if s.filings == nil {
		return nil
	}

	cik, err := s.filings.LookupCIK(ctx, ticker)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("CIK lookup failed")
		return nil
	}

	filings, err := s.filings.RecentFilings(ctx, cik, []string{"10-K", "10-Q"}, auditFilingLimit)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Str("cik", cik).Err(err).Msg("Filing lookup failed")
		return &models.AuditTrail{Ticker: ticker, CIK: cik}
	}

	return &models.AuditTrail{Ticker: ticker, CIK: cik, Filings: filings}
}

// mergeSkips folds pre-evaluation skips into the batch skip log, keeping
// the ticker ordering invariant.
func mergeSkips(result *models.BatchResult, skips []models.SkippedTicker) {
	if len(skips) == 0 {
		return
	}
	result.Skipped = append(result.Skipped, skips...)
	sort.Slice(result.Skipped, func(a, b int) bool {
		return result.Skipped[a].Ticker < result.Skipped[b].Ticker
	})
}

func countQualifying(ranked []models.ScreeningResult) int {
	n := 0
	for i := range ranked {
		if ranked[i].Qualifies {
			n++
		}
	}
	return n
}

// Ensure Service implements the interface
var _ interfaces.ScreenerService = (*Service)(nil)
