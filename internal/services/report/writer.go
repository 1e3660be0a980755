// Package report renders screen results to CSV, JSON, Markdown and PNG
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/models"
)

// Writer implements ReportWriter
type Writer struct {
	cfg    common.ReportConfig
	logger *common.Logger
}

// NewWriter creates a new report writer
func NewWriter(cfg common.ReportConfig, logger *common.Logger) *Writer {
	return &Writer{
		cfg:    cfg,
		logger: logger,
	}
}

// summaryDocument is the shape of summary.json.
type summaryDocument struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt string                    `json:"generated_at"`
	Results     []models.ReportSummaryRow `json:"results"`
	Skipped     []models.SkippedTicker    `json:"skipped,omitempty"`
}

// WriteSummary writes the ranking summary as summary.csv and summary.json
// in the output directory.
func (w *Writer) WriteSummary(result *models.BatchResult, profiles map[string]*models.CompanyProfile) error {
	if err := os.MkdirAll(w.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rows := buildSummaryRows(result, profiles)

	if err := w.writeSummaryCSV(rows); err != nil {
		return err
	}
	if err := w.writeSummaryJSON(result, rows); err != nil {
		return err
	}

	w.logger.Info().
		Str("run_id", result.RunID).
		Int("ranked", len(rows)).
		Int("skipped", len(result.Skipped)).
		Str("dir", w.cfg.OutputDir).
		Msg("Summary written")

	return nil
}

func buildSummaryRows(result *models.BatchResult, profiles map[string]*models.CompanyProfile) []models.ReportSummaryRow {
	rows := make([]models.ReportSummaryRow, 0, len(result.Ranked))
	for i, r := range result.Ranked {
		name := ""
		if p, ok := profiles[r.Ticker]; ok && p != nil {
			name = p.Name
		}

		methods := make([]string, 0, len(r.Estimates))
		for _, est := range r.Estimates {
			if est.Defined() {
				methods = append(methods, est.Method)
			}
		}

		passed := 0
		for _, c := range r.Criteria {
			if c.Passed {
				passed++
			}
		}

		rows = append(rows, models.ReportSummaryRow{
			Rank:           i + 1,
			Ticker:         r.Ticker,
			Name:           name,
			Qualifies:      r.Qualifies,
			CompositeScore: r.CompositeScore,
			IntrinsicValue: r.IntrinsicValue,
			Price:          r.Price,
			MarginOfSafety: r.MarginOfSafety,
			Confidence:     r.Confidence,
			Methods:        methods,
			CriteriaPassed: passed,
		})
	}
	return rows
}

func (w *Writer) writeSummaryCSV(rows []models.ReportSummaryRow) error {
	path := filepath.Join(w.cfg.OutputDir, "summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{
		"rank", "ticker", "name", "qualifies", "composite_score",
		"intrinsic_value", "price", "margin_of_safety", "confidence",
		"methods", "criteria_passed",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Rank),
			row.Ticker,
			row.Name,
			strconv.FormatBool(row.Qualifies),
			strconv.FormatFloat(row.CompositeScore, 'f', 1, 64),
			formatOptionalCSV(row.IntrinsicValue),
			strconv.FormatFloat(row.Price, 'f', 2, 64),
			formatOptionalCSV(row.MarginOfSafety),
			strconv.FormatFloat(row.Confidence, 'f', 2, 64),
			strings.Join(row.Methods, "|"),
			strconv.Itoa(row.CriteriaPassed),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeSummaryJSON(result *models.BatchResult, rows []models.ReportSummaryRow) error {
	doc := summaryDocument{
		RunID:       result.RunID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Results:     rows,
		Skipped:     result.Skipped,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(w.cfg.OutputDir, "summary.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteTickerReport writes one detailed Markdown report, rendering the
// owner-earnings chart alongside it when enabled. A chart failure downgrades
// to a report without the image.
func (w *Writer) WriteTickerReport(report *models.TickerReport) error {
	if err := os.MkdirAll(w.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ticker := report.Result.Ticker

	if w.cfg.Charts {
		history := report.Result.Metrics.OwnerEarningsHistory
		if len(history) >= 2 {
			png, err := RenderOwnerEarningsChart(ticker, history)
			if err != nil {
				w.logger.Warn().Err(err).Str("ticker", ticker).Msg("Chart render failed, continuing without chart")
			} else {
				chartName := ticker + "_owner_earnings.png"
				chartPath := filepath.Join(w.cfg.OutputDir, chartName)
				if err := os.WriteFile(chartPath, png, 0644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
				report.ChartPath = chartName
			}
		}
	}

	md := formatTickerReport(report)
	path := filepath.Join(w.cfg.OutputDir, ticker+".md")
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger.Debug().Str("ticker", ticker).Str("path", path).Msg("Ticker report written")
	return nil
}

func formatOptionalCSV(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// Verify interface compliance
var _ interfaces.ReportWriter = (*Writer)(nil)
