package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/graham/internal/app"
	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

var (
	configPath   string
	tickers      []string
	tickerFile   string
	exchange     string
	sampleSize   int
	sampleSeed   int64
	minMarketCap float64
	providerName string
	outputDir    string
	topN         int
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:   "graham-scan",
	Short: "Screen equities against Graham's defensive-investor criteria",
	Long: `graham-scan evaluates a universe of tickers against Benjamin Graham's
defensive-investor criteria, triangulates intrinsic value from earnings
power, net asset value and discounted owner earnings, and writes a ranked
report with a per-ticker audit trail.

The universe comes from an explicit ticker list, a CSV file, or the data
provider's exchange listing, in that order of precedence.`,
	RunE:         runScan,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (build %s, commit %s)",
		common.GetVersion(), common.GetBuild(), common.GetGitCommit())

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to graham.toml (default: alongside the binary)")
	rootCmd.Flags().StringSliceVarP(&tickers, "tickers", "t", nil, "Explicit tickers to screen, comma separated")
	rootCmd.Flags().StringVarP(&tickerFile, "file", "f", "", "Ticker list file (CSV or one ticker per line)")
	rootCmd.Flags().StringVarP(&exchange, "exchange", "x", "", "Screen the provider's full listing for this exchange")
	rootCmd.Flags().IntVar(&sampleSize, "sample", 0, "Randomly sample this many tickers from the universe")
	rootCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "Seed for universe sampling")
	rootCmd.Flags().Float64Var(&minMarketCap, "min-market-cap", 0, "Skip companies below this market cap")
	rootCmd.Flags().StringVar(&providerName, "provider", "", "Data provider: alphavantage or file")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Report output directory")
	rootCmd.Flags().IntVar(&topN, "top", 0, "Write detailed reports for the top N tickers")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and print the universe without screening")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	// Flag overrides ride the same env override path the config loader
	// already applies, so they land before provider construction.
	if providerName != "" {
		os.Setenv("GRAHAM_PROVIDER", providerName)
	}
	if outputDir != "" {
		os.Setenv("GRAHAM_OUTPUT_DIR", outputDir)
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		return err
	}

	common.PrintBanner(a.Config, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := interfaces.ScreenRunOptions{
		Tickers:      tickers,
		TickerFile:   tickerFile,
		Exchange:     exchange,
		SampleSize:   sampleSize,
		Seed:         sampleSeed,
		MinMarketCap: minMarketCap,
		DryRun:       dryRun,
		TopN:         topN,
	}

	if dryRun {
		universe, err := a.ScreenerService.ResolveUniverse(ctx, options)
		if err != nil {
			return err
		}
		fmt.Printf("Universe: %d tickers\n", len(universe))
		for _, ticker := range universe {
			fmt.Println(ticker)
		}
		return nil
	}

	result, err := a.ScreenerService.Run(ctx, options)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

// printSummary writes a compact ranking to stdout. The full report lives in
// the output directory.
func printSummary(result *models.BatchResult) {
	qualifying := 0
	for _, r := range result.Ranked {
		if r.Qualifies {
			qualifying++
		}
	}

	fmt.Printf("\nRun %s: %d ranked, %d skipped, %d qualify\n\n",
		result.RunID, len(result.Ranked), len(result.Skipped), qualifying)

	for i, r := range result.Ranked {
		marker := " "
		if r.Qualifies {
			marker = "*"
		}
		line := fmt.Sprintf("%3d %s %-8s score %5.1f", i+1, marker, r.Ticker, r.CompositeScore)
		if r.MarginOfSafety != nil {
			line += fmt.Sprintf("  margin %s", common.FormatPct(*r.MarginOfSafety))
		}
		fmt.Println(line)
	}

	if len(result.Skipped) > 0 {
		fmt.Printf("\nSkipped:\n")
		for _, s := range result.Skipped {
			fmt.Printf("    %-8s %s\n", s.Ticker, s.Reason)
		}
	}
}
