// clean-db removes every stored match record and team history from the
// configured storage. Usage:
//
//	go run ./cmd/clean-db -config configs/scraper.yaml
//	# or
//	STORAGE_KIND=postgres POSTGRES_DSN='host=... sslmode=require' ./clean-db
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	pkgconfig "github.com/Vodeneev/overunder/internal/pkg/config"
	"github.com/Vodeneev/overunder/internal/pkg/storage"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/scraper.yaml"
	}
	configPath := flag.String("config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	cfg, err := pkgconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sink, err := storage.Open(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer sink.Close()

	clearer, ok := sink.(storage.Clearer)
	if !ok {
		log.Printf("Storage kind %q keeps no records, nothing to clear", cfg.Storage.Kind)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := clearer.Clear(ctx); err != nil {
		sink.Close()
		log.Fatalf("Failed to clear storage: %v", err)
	}

	log.Printf("Done. Cleared %s storage.", cfg.Storage.Kind)
}
