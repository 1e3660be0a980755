package screen

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bobmcallan/graham/internal/models"
)

// BatchInput carries one ticker's inputs into EvaluateBatch. FetchErr
// records an upstream fetch failure; such tickers go straight to the
// skip log.
type BatchInput struct {
	Ticker   string
	Stmt     *models.FinancialStatement
	Price    float64
	FetchErr error
}

type batchOptions struct {
	workers int
}

// BatchOption adjusts EvaluateBatch behavior.
type BatchOption func(*batchOptions)

// WithWorkers bounds evaluation concurrency. Defaults to 4.
func WithWorkers(n int) BatchOption {
	return func(o *batchOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// EvaluateBatch screens a batch of tickers concurrently. Per-ticker
// failures (fetch errors, missing data, failed triangulation, panics) are
// isolated into the skip log and never abort the batch. The ranked list is
// ordered by composite score descending with ticker ascending on ties, the
// skip log by ticker, so output is identical regardless of input order or
// scheduling. The only error returned is context cancellation.
func (e *Engine) EvaluateBatch(ctx context.Context, inputs []BatchInput, opts ...BatchOption) (*models.BatchResult, error) {
	options := batchOptions{workers: 4}
	for _, opt := range opts {
		opt(&options)
	}

	result := &models.BatchResult{
		RunID:   uuid.NewString(),
		Ranked:  []models.ScreeningResult{},
		Skipped: []models.SkippedTicker{},
	}

	// First occurrence wins; later duplicates are skipped outright.
	seen := make(map[string]bool, len(inputs))
	var work []BatchInput
	for _, in := range inputs {
		if seen[in.Ticker] {
			result.Skipped = append(result.Skipped, models.SkippedTicker{
				Ticker: in.Ticker, Reason: "duplicate ticker",
			})
			continue
		}
		seen[in.Ticker] = true
		work = append(work, in)
	}

	evaluated := make([]*models.ScreeningResult, len(work))
	skipped := make([]*models.SkippedTicker, len(work))

	sem := make(chan struct{}, options.workers)
	var wg sync.WaitGroup

	for i := range work {
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
			evaluated[i], skipped[i] = e.evaluateOne(work[i])
		}(i)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range work {
		switch {
		case evaluated[i] != nil:
			result.Ranked = append(result.Ranked, *evaluated[i])
		case skipped[i] != nil:
			result.Skipped = append(result.Skipped, *skipped[i])
		}
	}

	rank(result.Ranked)
	sort.Slice(result.Skipped, func(a, b int) bool {
		return result.Skipped[a].Ticker < result.Skipped[b].Ticker
	})

	return result, nil
}

// evaluateOne maps a single input to either a result or a skip entry,
// recovering from panics so one bad ticker cannot take down the pool.
func (e *Engine) evaluateOne(in BatchInput) (res *models.ScreeningResult, skip *models.SkippedTicker) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			skip = &models.SkippedTicker{
				Ticker: in.Ticker,
				Reason: fmt.Sprintf("panic during evaluation: %v", r),
			}
		}
	}()

	if in.FetchErr != nil {
		return nil, &models.SkippedTicker{
			Ticker: in.Ticker,
			Reason: fmt.Sprintf("fetch failed: %v", in.FetchErr),
		}
	}
	if in.Stmt == nil || len(in.Stmt.Periods) == 0 {
		return nil, &models.SkippedTicker{Ticker: in.Ticker, Reason: "no statement data"}
	}

	result, err := e.Evaluate(in.Ticker, in.Stmt, in.Price)
	if err != nil {
		return nil, &models.SkippedTicker{Ticker: in.Ticker, Reason: err.Error()}
	}
	if result.IntrinsicValue == nil {
		return nil, &models.SkippedTicker{Ticker: in.Ticker, Reason: "all valuation methods failed"}
	}
	return result, nil
}

// rank orders results by composite score descending, ticker ascending on
// ties. Stable so equal entries keep a total deterministic order.
func rank(results []models.ScreeningResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].Ticker < results[j].Ticker
	})
}
