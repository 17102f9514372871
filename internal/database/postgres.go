package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectAttempts = 10

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	// Retry connection (Postgres may not be ready yet in Docker)
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			log.Printf("DB connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
			time.Sleep(2 * time.Second)
			continue
		}
		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			log.Printf("DB ping attempt %d/%d failed: %v", attempt, connectAttempts, pingErr)
			time.Sleep(2 * time.Second)
			continue
		}
		log.Printf("Database connected (attempt %d)", attempt)
		return pool, nil
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}
