package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/graham/internal/app"
)

// graham-mcp hosts the screening tools over stdio for MCP clients that
// spawn a local process instead of connecting to graham-server's /mcp
// endpoint. Logs go to stderr; stdout carries only the protocol.
func main() {
	configPath := os.Getenv("GRAHAM_CONFIG")

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	a.Logger.Info().Msg("Starting MCP server on stdio")

	if err := server.ServeStdio(a.MCPServer); err != nil {
		a.Logger.Error().Err(err).Msg("MCP server stopped with error")
		os.Exit(1)
	}
}
