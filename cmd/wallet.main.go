package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wallet-service/internal/config"
	"wallet-service/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("Wallet: No .env file found, relying on system env vars")
	}

	// Load config
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start wallet REST server in a goroutine
	done := make(chan struct{})
	go func() {
		log.Printf("🌍 Wallet service starting on %s", cfg.HTTPAddr)
		// This blocks until the server exits
		server.NewWalletRESTServer(ctx, cfg)
		close(done)
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("🛑 Wallet service shutting down gracefully...")
		cancel()
		<-done
	case <-done:
		log.Println("Wallet service stopped")
	}
}
