// Package interfaces defines service contracts for Graham
package interfaces

import (
	"context"

	"github.com/bobmcallan/graham/internal/models"
)

// FinancialDataProvider supplies statement history, profiles, quotes and
// exchange listings for the screener. Implementations are selected by name
// through the provider factory; there is no implicit registration.
type FinancialDataProvider interface {
	// Name returns the provider's registry name.
	Name() string

	// FetchStatements retrieves up to years of annual statement history,
	// ordered oldest to newest.
	FetchStatements(ctx context.Context, ticker string, years int) (*models.FinancialStatement, error)

	// FetchProfile retrieves descriptive company data.
	FetchProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error)

	// FetchQuote retrieves the latest price.
	FetchQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// ListExchangeTickers retrieves the ticker universe for an exchange.
	ListExchangeTickers(ctx context.Context, exchange string) ([]string, error)
}

// FilingClient resolves SEC EDGAR filing references for the audit trail.
type FilingClient interface {
	// LookupCIK resolves a ticker to its zero-padded central index key.
	LookupCIK(ctx context.Context, ticker string) (string, error)

	// RecentFilings retrieves recent filings of the given forms.
	RecentFilings(ctx context.Context, cik string, forms []string, limit int) ([]models.Filing, error)
}

// CommentaryClient generates short investment commentary for candidates.
type CommentaryClient interface {
	// ScreenCommentary writes a brief thesis paragraph for one result.
	// Filing links, when present, are passed to the model as references.
	ScreenCommentary(ctx context.Context, result *models.ScreeningResult, profile *models.CompanyProfile, filings []models.Filing) (string, error)
}
