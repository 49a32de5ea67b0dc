package acquisition

import (
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/sources/generic"
	"github.com/bissquit/reliability-reporter/internal/sources/history"
	"github.com/bissquit/reliability-reporter/internal/sources/rss"
	"github.com/bissquit/reliability-reporter/internal/sources/statuspageapi"
)

// SourceConfig configures the concrete fetchers behind each tier.
type SourceConfig struct {
	Fetch           sources.Config
	HistoryMaxPages int
	GenericMaxPages int
	EnableGeneric   bool
	EnableRSS       bool
}

// NewSources builds one fetcher per enabled tier. Every fetcher gets its
// own HTTP client and rate limiter.
func NewSources(config SourceConfig) Sources {
	historyConfig := config.Fetch
	historyConfig.MaxPages = config.HistoryMaxPages

	src := Sources{
		API:     statuspageapi.New(config.Fetch),
		History: history.New(historyConfig),
	}

	if config.EnableGeneric {
		genericConfig := config.Fetch
		genericConfig.MaxPages = config.GenericMaxPages
		src.Generic = generic.New(genericConfig)
	}
	if config.EnableRSS {
		src.RSS = rss.New(config.Fetch)
	}
	return src
}
