package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/graham/internal/models"
)

// TestNewApp_InitializesCore verifies that NewApp creates an App with the
// provider, clients, services, and the MCP server initialized.
func TestNewApp_InitializesCore(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if a.Config == nil {
		t.Error("Config is nil")
	}
	if a.Logger == nil {
		t.Error("Logger is nil")
	}
	if a.Provider == nil {
		t.Fatal("Provider is nil")
	}
	if a.Provider.Name() != "file" {
		t.Errorf("expected file provider, got %s", a.Provider.Name())
	}
	if a.FilingClient == nil {
		t.Error("FilingClient is nil")
	}
	if a.Engine == nil {
		t.Error("Engine is nil")
	}
	if a.ReportWriter == nil {
		t.Error("ReportWriter is nil")
	}
	if a.ScreenerService == nil {
		t.Error("ScreenerService is nil")
	}
	if a.MCPServer == nil {
		t.Error("MCPServer is nil")
	}
	if a.StartupTime.IsZero() {
		t.Error("StartupTime is zero")
	}
}

// TestNewApp_RegistersAllTools verifies that NewApp registers the expected
// MCP tools.
func TestNewApp_RegistersAllTools(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}

	expectedTools := []string{
		"get_version",
		"screen_tickers",
		"get_screen_config",
		"explain_ticker",
	}

	toolNames := make(map[string]bool)
	for _, tool := range toolsResult.Tools {
		toolNames[tool.Name] = true
	}

	for _, name := range expectedTools {
		if !toolNames[name] {
			t.Errorf("Expected tool %q not registered", name)
		}
	}

	if len(toolsResult.Tools) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(toolsResult.Tools))
	}
}

// TestNewApp_GetVersionToolWorks verifies that the get_version tool works
// through a full App initialization.
func TestNewApp_GetVersionToolWorks(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = "get_version"
	result, err := c.CallTool(ctx, req)
	if err != nil {
		t.Fatalf("get_version failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "Graham MCP Server") {
		t.Errorf("Expected 'Graham MCP Server' in output, got: %s", text)
	}
}

// TestNewApp_ScreenConfigToolRedactsSecrets verifies that get_screen_config
// returns thresholds without API keys.
func TestNewApp_ScreenConfigToolRedactsSecrets(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_screen_config"
	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("get_screen_config failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "min_margin_of_safety") {
		t.Errorf("Expected criteria thresholds in output, got: %s", text)
	}
	if !strings.Contains(text, "epv_discount_rate") {
		t.Errorf("Expected valuation parameters in output, got: %s", text)
	}
	if strings.Contains(text, "api_key") {
		t.Errorf("API keys must not appear in config output, got: %s", text)
	}
}

// TestNewApp_ExplainTickerToolWorks screens a fixture ticker end to end
// through the MCP surface using the file provider.
func TestNewApp_ExplainTickerToolWorks(t *testing.T) {
	configPath, dataDir := writeTestConfig(t)
	writeTickerFixture(t, dataDir, "ACME")

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	req := mcp.CallToolRequest{}
	req.Params.Name = "explain_ticker"
	req.Params.Arguments = map[string]any{"ticker": "ACME"}
	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("explain_ticker failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, `"ticker": "ACME"`) {
		t.Errorf("Expected ACME result, got: %s", text)
	}
	if !strings.Contains(text, "composite_score") {
		t.Errorf("Expected composite score in output, got: %s", text)
	}
	if !strings.Contains(text, "criteria") {
		t.Errorf("Expected criteria detail in output, got: %s", text)
	}
}

// TestNewApp_InvalidConfigReturnsError verifies that an invalid config file
// returns a meaningful error.
func TestNewApp_InvalidConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")
	os.WriteFile(configPath, []byte("{{{{invalid toml"), 0644)

	_, err := NewApp(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid config content, got nil")
	}
}

// --- test helpers ---

// writeTestConfig creates a minimal graham.toml using the file provider in
// a temp directory. Returns the config path and the provider data dir.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	dataDir := filepath.Join(dir, "data")
	os.MkdirAll(dataDir, 0755)

	config := `
environment = "test"

[provider]
name = "file"

[provider.file]
dir = "` + dataDir + `"

[universe]
tickers = ["ACME"]

[report]
output_dir = "` + filepath.Join(dir, "reports") + `"

[logging]
level = "error"
`
	configPath := filepath.Join(dir, "graham.toml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath, dataDir
}

// writeTickerFixture writes a file-provider document with seven profitable
// years and a deep-value balance sheet at a low price.
func writeTickerFixture(t *testing.T, dataDir, ticker string) {
	t.Helper()

	periods := make([]models.FinancialPeriod, 7)
	for i := range periods {
		periods[i] = models.FinancialPeriod{
			FiscalDate:        fmt.Sprintf("%d-12-31", 2018+i),
			NetIncome:         100,
			SharesOutstanding: 100,
		}
	}
	periods[6].CurrentAssets = 500
	periods[6].CurrentLiabilities = 100
	periods[6].TotalLiabilities = 200
	periods[6].TotalDebt = 50
	periods[6].ShareholderEquity = 400

	doc := map[string]any{
		"ticker":  ticker,
		"quote":   models.Quote{Ticker: ticker, Price: 2.0},
		"periods": periods,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, ticker+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
}

// newInProcessClient creates an mcp-go in-process client connected to the
// given MCP server. Handles the initialization handshake.
func newInProcessClient(t *testing.T, mcpServer *server.MCPServer) (*client.Client, error) {
	t.Helper()

	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}
