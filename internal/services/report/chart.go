package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
)

// RenderOwnerEarningsChart renders a PNG line chart of annual owner earnings.
// A gray dashed break-even line is added when any year is negative.
// Returns raw PNG bytes.
func RenderOwnerEarningsChart(ticker string, history []models.YearValue) ([]byte, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(history))
	}

	xValues := make([]float64, len(history))
	yValues := make([]float64, len(history))
	hasNegative := false

	for i, yv := range history {
		year, err := strconv.Atoi(yv.Year)
		if err != nil {
			return nil, fmt.Errorf("bad fiscal year %q: %w", yv.Year, err)
		}
		xValues[i] = float64(year)
		yValues[i] = yv.Value
		if yv.Value < 0 {
			hasNegative = true
		}
	}

	earningsSeries := chart.ContinuousSeries{
		Name: "Owner Earnings",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	series := []chart.Series{earningsSeries}

	if hasNegative {
		zeroY := make([]float64, len(history))
		series = append(series, chart.ContinuousSeries{
			Name: "Break Even",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues,
			YValues: zeroY,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Owner Earnings", ticker),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return common.FormatMarketCap(f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
