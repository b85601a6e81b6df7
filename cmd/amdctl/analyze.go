package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"AMDScope/internal/di"
	"AMDScope/internal/domain/repository"
	internalrepo "AMDScope/internal/repository"
	"AMDScope/internal/services/cycles"
	"AMDScope/internal/services/indicators"
	"AMDScope/internal/usecase"
	"AMDScope/pkg/config"
	applogger "AMDScope/pkg/logger"
)

var (
	analyzeFile   string
	analyzeSymbol string
	analyzePeriod string
	analyzeTZ     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the regime pipeline over a local JSON bar file",
	Long: `Run the regime pipeline over a JSON array of bars.

Each bar needs a time ("time", "t", "timestamp" or "datetime"; RFC3339 or unix
seconds/milliseconds) and open/high/low/close, with optional volume. Short keys
o/h/l/c/v are accepted. The period is measured back from the last bar.

Example usage:
  amdctl analyze --file bars.json
  amdctl analyze --file bars.json --period 2d --tz America/New_York -o json`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "bar file (JSON array)")
	analyzeCmd.Flags().StringVar(&analyzeSymbol, "symbol", "", "symbol label for the report")
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "max", "lookback period from the last bar")
	analyzeCmd.Flags().StringVar(&analyzeTZ, "tz", "", "timezone anchoring VWAP sessions (defaults to config)")
	_ = analyzeCmd.MarkFlagRequired("file")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	loc := cfg.SessionLocation()
	if analyzeTZ != "" {
		if loc, err = time.LoadLocation(analyzeTZ); err != nil {
			return fmt.Errorf("tz: %w", err)
		}
	}

	uc, err := newUseCase(cfg, internalrepo.NewFileBarSource(analyzeFile, loc), loc, log)
	if err != nil {
		return err
	}
	return runReport(cmd, uc, analyzeSymbol, analyzePeriod)
}

// newUseCase builds the pipeline over src without event publishing.
func newUseCase(cfg *config.Config, src repository.BarSource, loc *time.Location, log *applogger.Logger) (*usecase.AMDUseCase, error) {
	det, err := di.ProvideDetector(cfg)
	if err != nil {
		return nil, err
	}
	return usecase.NewAMDUseCase(
		usecase.Config{
			DefaultSymbol: cfg.Market.Symbol,
			DefaultPeriod: cfg.Market.DefaultPeriod,
			Interval:      repository.NormalizeInterval(cfg.Market.Interval),
			FetchTimeout:  cfg.Market.FetchTimeout,
		},
		src,
		indicators.NewEngine(indicators.WithSessionLocation(loc)),
		det,
		cycles.NewSummarizer(),
		nil,
		nil,
		log,
	), nil
}

func runReport(cmd *cobra.Command, uc *usecase.AMDUseCase, symbol, period string) error {
	rep, err := uc.Cycles(cmd.Context(), usecase.Params{Symbol: symbol, Period: period})
	if err != nil {
		return err
	}
	sum := cycles.Summarize(rep.Symbol, rep.Period, rep.Cycles)
	return render(cmd.OutOrStdout(), outputFormat, rep, &sum)
}
