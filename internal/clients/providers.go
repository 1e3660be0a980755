// Package clients selects and constructs financial data providers
package clients

import (
	"fmt"

	"github.com/bobmcallan/graham/internal/clients/alphavantage"
	"github.com/bobmcallan/graham/internal/clients/filedata"
	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/interfaces"
)

// NewProvider constructs the data provider named in the configuration.
// Selection is explicit; there is no registration side channel.
func NewProvider(cfg *common.Config, logger *common.Logger) (interfaces.FinancialDataProvider, error) {
	switch cfg.Provider.Name {
	case "alphavantage":
		av := cfg.Provider.AlphaVantage
		if len(av.APIKeys) == 0 {
			return nil, common.NewConfigurationError("provider.alphavantage.api_keys", "at least one API key is required")
		}
		opts := []alphavantage.ClientOption{
			alphavantage.WithLogger(logger),
			alphavantage.WithRatePerMinute(av.RatePerMinute),
			alphavantage.WithTimeout(av.GetTimeout()),
		}
		if av.BaseURL != "" {
			opts = append(opts, alphavantage.WithBaseURL(av.BaseURL))
		}
		return alphavantage.NewClient(alphavantage.NewKeyRing(av.APIKeys...), opts...), nil

	case "file":
		if cfg.Provider.File.Dir == "" {
			return nil, common.NewConfigurationError("provider.file.dir", "data directory is required")
		}
		return filedata.NewClient(cfg.Provider.File.Dir, filedata.WithLogger(logger)), nil

	default:
		return nil, common.NewConfigurationError("provider.name", fmt.Sprintf("unknown provider %q", cfg.Provider.Name))
	}
}
