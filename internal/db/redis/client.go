// Package redis is the rueidis driver behind database.driver redis and valkey.
// It holds the interaction log and, for remote providers, cached embeddings.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/genesis/internal/db"
)

var _ db.Store = (*Store)(nil)

// Config mirrors the database section of the service config.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store serves the KV and list commands the genesis repositories use.
// Redis and Valkey accept the same commands, so one driver serves both.
type Store struct {
	client rueidis.Client
}

// NewStore dials cfg.Addrs; app.New then calls WaitForReady before serving.
// Client-side caching stays off: history records change on every request.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("database.addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client}, nil
}

// Ping backs the "database" health check.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady blocks startup until the store answers PING, polling every
// 100ms for at most timeout (database.readiness_timeout_sec).
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not reachable after %s: %w", timeout, ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
