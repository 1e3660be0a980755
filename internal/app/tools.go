package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Graham MCP server version and status. Use this to verify connectivity."),
	)
}

// createScreenTickersTool returns the screen_tickers tool definition
func createScreenTickersTool() mcp.Tool {
	return mcp.NewTool("screen_tickers",
		mcp.WithDescription("Screen tickers against Benjamin Graham's conservative value criteria. Returns ranked results with intrinsic value estimates, margin of safety, and per-criterion pass/fail detail, plus a skip log for tickers that could not be evaluated."),
		mcp.WithArray("tickers",
			mcp.WithStringItems(),
			mcp.Required(),
			mcp.Description("List of tickers to screen (e.g., ['KO', 'PG', 'IBM'])"),
		),
	)
}

// createGetScreenConfigTool returns the get_screen_config tool definition
func createGetScreenConfigTool() mcp.Tool {
	return mcp.NewTool("get_screen_config",
		mcp.WithDescription("Get the effective screening configuration: valuation parameters, Graham criteria thresholds, and provider settings."),
	)
}

// createExplainTickerTool returns the explain_ticker tool definition
func createExplainTickerTool() mcp.Tool {
	return mcp.NewTool("explain_ticker",
		mcp.WithDescription("Evaluate a single ticker and return the full screening result: every valuation method's estimate, the triangulated intrinsic value, and each criterion with its actual value and threshold."),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Ticker to evaluate (e.g., 'KO')"),
		),
	)
}

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Graham MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleScreenTickers implements the screen_tickers tool
func handleScreenTickers(screenerService interfaces.ScreenerService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tickers := request.GetStringSlice("tickers", nil)
		if len(tickers) == 0 {
			return errorResult("Error: tickers parameter is required"), nil
		}

		result, err := screenerService.ScreenTickers(ctx, tickers)
		if err != nil {
			logger.Error().Err(err).Int("tickers", len(tickers)).Msg("Screen failed")
			return errorResult(fmt.Sprintf("Screen error: %v", err)), nil
		}

		return jsonResult(result)
	}
}

// handleGetScreenConfig implements the get_screen_config tool
func handleGetScreenConfig(config *common.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view := struct {
			Provider  common.ProviderConfig  `json:"provider"`
			Universe  common.UniverseConfig  `json:"universe"`
			Valuation common.ValuationConfig `json:"valuation"`
			Screen    common.ScreenConfig    `json:"screen"`
			Report    common.ReportConfig    `json:"report"`
		}{
			Provider:  config.Provider,
			Universe:  config.Universe,
			Valuation: config.Valuation,
			Screen:    config.Screen,
			Report:    config.Report,
		}
		return jsonResult(view)
	}
}

// handleExplainTicker implements the explain_ticker tool
func handleExplainTicker(screenerService interfaces.ScreenerService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || ticker == "" {
			return errorResult("Error: ticker parameter is required"), nil
		}

		result, err := screenerService.ScreenTickers(ctx, []string{ticker})
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Explain failed")
			return errorResult(fmt.Sprintf("Screen error: %v", err)), nil
		}

		if len(result.Ranked) == 1 {
			return jsonResult(result.Ranked[0])
		}
		if len(result.Skipped) == 1 {
			return textResult(fmt.Sprintf("%s was not ranked: %s", result.Skipped[0].Ticker, result.Skipped[0].Reason)), nil
		}
		return errorResult(fmt.Sprintf("Error: no result for %s", ticker)), nil
	}
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding result: %v", err)), nil
	}
	return textResult(string(data)), nil
}
