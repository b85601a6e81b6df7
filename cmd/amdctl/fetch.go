package main

import (
	"github.com/spf13/cobra"

	"AMDScope/internal/di"
	"AMDScope/internal/domain/repository"
)

var (
	fetchSymbol string
	fetchPeriod string
	fetchSource string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch live bars and run the regime pipeline",
	Long: `Fetch bars from the configured source (Yahoo or ClickHouse) and print the
regime cycles and summary.

Example usage:
  amdctl fetch --symbol NQ=F --period 7d
  amdctl fetch --symbol ES=F --period 1mo --source clickhouse -o json`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSymbol, "symbol", "", "symbol (defaults to config)")
	fetchCmd.Flags().StringVar(&fetchPeriod, "period", "", "lookback period (defaults to config)")
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "bar source: yahoo or clickhouse (defaults to config)")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fetchSource != "" {
		cfg.Market.Source = fetchSource
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	if ch != nil {
		defer ch.Close()
	}
	src, err := di.ProvideBarSource(cfg, log, repository.NopMetrics{}, nil, ch)
	if err != nil {
		return err
	}

	uc, err := newUseCase(cfg, src, cfg.SessionLocation(), log)
	if err != nil {
		return err
	}
	return runReport(cmd, uc, fetchSymbol, fetchPeriod)
}
