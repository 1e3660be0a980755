package screener

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
)

// ResolveUniverse returns the tickers a run with these options would
// screen, in screening order. Sources are tried in priority order:
// explicit list, ticker file, exchange listing. Sampling happens here so
// a dry run sees the same universe a real run would.
func (s *Service) ResolveUniverse(ctx context.Context, options interfaces.ScreenRunOptions) ([]string, error) {
	opts := s.mergeOptions(options)

	var (
		tickers []string
		err     error
	)
	switch {
	case len(opts.Tickers) > 0:
		tickers = opts.Tickers
	case opts.TickerFile != "":
		tickers, err = readTickerFile(opts.TickerFile)
		if err != nil {
			return nil, err
		}
	case opts.Exchange != "":
		tickers, err = s.provider.ListExchangeTickers(ctx, opts.Exchange)
		if err != nil {
			return nil, fmt.Errorf("list %s tickers: %w", opts.Exchange, err)
		}
	default:
		return nil, common.NewConfigurationError("universe", "no universe source: set universe.tickers, universe.ticker_file or universe.exchange")
	}

	tickers = normalizeTickers(tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}

	if opts.SampleSize > 0 && opts.SampleSize < len(tickers) {
		tickers = sampleTickers(tickers, opts.SampleSize, opts.Seed)
		s.logger.Debug().Int("sample", len(tickers)).Int64("seed", opts.Seed).Msg("Universe sampled")
	}

	return tickers, nil
}

// readTickerFile loads a universe from a CSV or plain text file. The first
// column is the ticker; blank lines and # comments are skipped, as is a
// leading ticker/symbol header row.
func readTickerFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticker file: %w", err)
	}

	var tickers []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		field := strings.TrimSpace(strings.Split(line, ",")[0])
		if field == "" {
			continue
		}
		if len(tickers) == 0 && (strings.EqualFold(field, "ticker") || strings.EqualFold(field, "symbol")) {
			continue
		}
		tickers = append(tickers, field)
	}
	return tickers, nil
}

// normalizeTickers uppercases, trims and dedupes while preserving order.
func normalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// sampleTickers draws n tickers with a seeded shuffle. A fixed seed gives
// the same sample on every run; the result is sorted so plans read stably.
func sampleTickers(tickers []string, n int, seed int64) []string {
	pool := make([]string, len(tickers))
	copy(pool, tickers)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	sample := pool[:n]
	sort.Strings(sample)
	return sample
}
