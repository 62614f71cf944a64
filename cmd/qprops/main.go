package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vjranagit/qprops/internal/config"
	"github.com/vjranagit/qprops/pkg/api"
	"github.com/vjranagit/qprops/pkg/storage"
)

const (
	version = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	fmt.Printf("qprops v%s\n", version)
	fmt.Println("Quantum backend calibration snapshot service")
	fmt.Println()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Listen Address: %s", cfg.Server.ListenAddr)
	log.Printf("  Store Path: %s", cfg.Store.Path)
	log.Printf("  Compression Level: %d", cfg.Store.CompressionLevel)

	// Initialize snapshot store
	log.Println("Opening snapshot store...")
	store, err := storage.NewStore(cfg.ToStoreConfig())
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()

	log.Println("Snapshot store ready")

	// Create API server
	log.Println("Starting API server...")
	server := api.NewServer(cfg.Server.ListenAddr, store)

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on %s", cfg.Server.ListenAddr)
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped successfully")
}
