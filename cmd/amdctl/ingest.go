package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"AMDScope/internal/di"
	"AMDScope/internal/domain/repository"
	internalrepo "AMDScope/internal/repository"
)

var (
	ingestFile     string
	ingestSymbol   string
	ingestInterval string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a JSON bar file into the ClickHouse bar table",
	Long: `Insert bars from a JSON file into the configured ClickHouse table so the
clickhouse source can serve them.

Example usage:
  amdctl ingest --file bars.json --symbol NQ=F --interval 5m`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "bar file (JSON array)")
	ingestCmd.Flags().StringVar(&ingestSymbol, "symbol", "", "symbol the bars belong to")
	ingestCmd.Flags().StringVar(&ingestInterval, "interval", "", "bar interval (defaults to config)")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("symbol")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Market.Source = "clickhouse"
	log, err := newLogger()
	if err != nil {
		return err
	}

	f, err := os.Open(ingestFile)
	if err != nil {
		return err
	}
	defer f.Close()
	bars, err := internalrepo.ReadBars(f, nil)
	if err != nil {
		return err
	}

	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()
	src, err := di.ProvideBarSource(cfg, log, repository.NopMetrics{}, nil, ch)
	if err != nil {
		return err
	}
	store, ok := src.(*internalrepo.CHBarSource)
	if !ok {
		return fmt.Errorf("source %s cannot store bars", src.Name())
	}

	interval := cfg.Market.Interval
	if ingestInterval != "" {
		interval = ingestInterval
	}
	iv := repository.Interval(strings.ToLower(interval))
	if !repository.IsValidInterval(iv) {
		return fmt.Errorf("unsupported interval %q", interval)
	}
	symbol := strings.ToUpper(strings.TrimSpace(ingestSymbol))
	if err := store.StoreBars(cmd.Context(), symbol, iv, bars); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d %s bars for %s\n", len(bars), iv, symbol)
	return nil
}
