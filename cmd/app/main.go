package main

import (
	"context"
	"flag"
	"log"
	"os"

	"AMDScope/internal/di"
	"AMDScope/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path (empty for defaults)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s symbol=%s cache=%s kafka=%t",
		cfg.Environment, cfg.Market.Source, cfg.Market.Symbol, cfg.Cache.Backend, cfg.Kafka.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
