package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
)

// handleScreen handles POST /api/screen — evaluate a list of tickers and
// return the ranked batch result. Nothing is written to disk; report
// generation belongs to the CLI run.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Tickers []string `json:"tickers"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if len(req.Tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "tickers is required")
		return
	}

	result, err := s.app.ScreenerService.ScreenTickers(r.Context(), req.Tickers)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Screen error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleUniverse handles POST /api/universe — resolve a universe without
// screening it. Mirrors the CLI dry-run.
func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Tickers    []string `json:"tickers"`
		TickerFile string   `json:"ticker_file"`
		Exchange   string   `json:"exchange"`
		Sample     int      `json:"sample"`
		Seed       int64    `json:"seed"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	tickers, err := s.app.ScreenerService.ResolveUniverse(r.Context(), interfaces.ScreenRunOptions{
		Tickers:    req.Tickers,
		TickerFile: req.TickerFile,
		Exchange:   req.Exchange,
		SampleSize: req.Sample,
		Seed:       req.Seed,
	})
	if err != nil {
		var confErr *common.ConfigurationError
		if errors.As(err, &confErr) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Universe error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": tickers,
		"count":   len(tickers),
	})
}
