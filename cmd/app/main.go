package main

import (
	"flag"
	"log"
	"os"

	"CandleCast/internal/di"
	"CandleCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting candlecast env=%s port=%d stream=%v redis=%v",
		cfg.Environment, cfg.Server.Port, cfg.Stream.Enabled, cfg.Redis.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until SIGINT/SIGTERM
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
