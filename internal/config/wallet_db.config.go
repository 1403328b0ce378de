package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func walletDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
}

// walletPoolConfig parses the connection URL and applies the pool bounds.
// Bounds are env-tunable so a sweep-heavy deployment can widen the pool
// without a rebuild.
func walletPoolConfig(dbURL string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	cfg.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 50))
	cfg.MinConns = int32(getEnvInt("DB_MIN_CONNS", 10))
	cfg.MaxConnLifetime = getEnvDuration("DB_CONN_LIFETIME", time.Hour)
	cfg.MaxConnIdleTime = getEnvDuration("DB_CONN_IDLE_TIME", 5*time.Minute)
	return cfg, nil
}

func ConnectDB() (*pgxpool.Pool, error) {
	dbURL := walletDBURL()

	var dbpool *pgxpool.Pool
	var err error

	maxRetries := 5
	delay := 2 * time.Second

	for i := 1; i <= maxRetries; i++ {
		log.Printf("[DB] Attempt %d/%d: connecting to wallet database...", i, maxRetries)

		poolCfg, cfgErr := walletPoolConfig(dbURL)
		if cfgErr != nil {
			log.Printf("[DB] ❌ Failed to parse config: %v", cfgErr)
			return nil, cfgErr
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		dbpool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pingErr := dbpool.Ping(ctx)
			if pingErr == nil {
				cancel()
				log.Println("[DB] ✅ Connected successfully!")
				return dbpool, nil
			}
			dbpool.Close()
			err = fmt.Errorf("ping failed: %w", pingErr)
		}
		cancel()

		log.Printf("[DB] ❌ Connection failed: %v", err)

		if i < maxRetries {
			log.Printf("[DB] Retrying in %s...", delay)
			time.Sleep(delay)
			delay *= 2 // exponential backoff
		}
	}

	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", maxRetries, err)
}
