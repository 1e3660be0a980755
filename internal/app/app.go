package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/graham/internal/clients"
	"github.com/bobmcallan/graham/internal/clients/gemini"
	"github.com/bobmcallan/graham/internal/clients/secedgar"
	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
	"github.com/bobmcallan/graham/internal/screen"
	"github.com/bobmcallan/graham/internal/services/report"
	"github.com/bobmcallan/graham/internal/services/screener"
)

// App holds the initialized clients, services, and the MCP server.
// It is the shared core used by cmd/graham-server and cmd/graham-scan.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Provider         interfaces.FinancialDataProvider
	FilingClient     interfaces.FilingClient
	CommentaryClient interfaces.CommentaryClient
	Engine           *screen.Engine
	ReportWriter     interfaces.ReportWriter
	ScreenerService  interfaces.ScreenerService
	MCPServer        *server.MCPServer
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients, services, and the MCP server.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, GRAHAM_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("GRAHAM_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "graham.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/graham.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	provider, err := clients.NewProvider(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data provider: %w", err)
	}

	// EDGAR needs no credentials; the client is always available.
	filingClient := secedgar.NewClient(secedgar.WithLogger(logger))

	var commentaryClient interfaces.CommentaryClient
	if config.Gemini.Enabled() {
		geminiClient, err := gemini.NewClient(context.Background(), config.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - commentary will be unavailable")
		} else {
			commentaryClient = geminiClient
		}
	} else {
		logger.Debug().Msg("Gemini API key not configured - commentary disabled")
	}

	engine := screen.NewEngine(config.Valuation, config.Screen)
	reportWriter := report.NewWriter(config.Report, logger)

	screenerService := screener.NewService(
		provider,
		engine,
		filingClient,
		commentaryClient,
		reportWriter,
		config,
		logger,
	)

	mcpServer := server.NewMCPServer(
		"graham",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Provider:         provider,
		FilingClient:     filingClient,
		CommentaryClient: commentaryClient,
		Engine:           engine,
		ReportWriter:     reportWriter,
		ScreenerService:  screenerService,
		MCPServer:        mcpServer,
		StartupTime:      startupStart,
	}

	a.registerTools()

	logger.Info().
		Str("provider", provider.Name()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createScreenTickersTool(), handleScreenTickers(a.ScreenerService, logger))
	s.AddTool(createGetScreenConfigTool(), handleGetScreenConfig(a.Config))
	s.AddTool(createExplainTickerTool(), handleExplainTicker(a.ScreenerService, logger))
}
