package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/genesis/internal/db"
	"github.com/kailas-cloud/genesis/internal/domain"
)

// store is the consumer interface for the interaction log (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRem(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Repo persists pipeline interactions: one JSON record per request plus a
// capped list of recent request IDs, newest first.
type Repo struct {
	store   store
	prefix  string
	ttl     time.Duration
	history int64
}

// New creates an interaction repository. history caps the recent list; ttl
// bounds record lifetime (0 keeps records forever).
func New(s store, keyPrefix string, ttl time.Duration, history int) *Repo {
	if history < 1 {
		history = 1
	}
	return &Repo{store: s, prefix: keyPrefix, ttl: ttl, history: int64(history)}
}

// Save stores the interaction and records it as the most recent one.
// Saving a request ID again replaces the record and moves it to the front.
func (r *Repo) Save(ctx context.Context, in domain.Interaction) error {
	if in.RequestID == "" {
		return fmt.Errorf("save interaction: empty request id")
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	key := r.recordKey(in.RequestID)
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	recent := r.recentKey()
	if err := r.store.LRem(ctx, recent, in.RequestID); err != nil {
		return fmt.Errorf("lrem %s: %w", recent, err)
	}
	if err := r.store.LPush(ctx, recent, in.RequestID); err != nil {
		return fmt.Errorf("lpush %s: %w", recent, err)
	}
	if err := r.store.LTrim(ctx, recent, 0, r.history-1); err != nil {
		return fmt.Errorf("ltrim %s: %w", recent, err)
	}
	return nil
}

// Get returns one interaction by request ID.
func (r *Repo) Get(ctx context.Context, requestID string) (domain.Interaction, error) {
	key := r.recordKey(requestID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Interaction{}, fmt.Errorf("interaction %s: %w", requestID, domain.ErrNotFound)
		}
		return domain.Interaction{}, fmt.Errorf("get %s: %w", key, err)
	}

	var in domain.Interaction
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.Interaction{}, fmt.Errorf("unmarshal interaction %s: %w", requestID, err)
	}
	return in, nil
}

// Recent returns up to limit interactions, newest first. IDs whose record
// has expired are skipped.
func (r *Repo) Recent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		return []domain.Interaction{}, nil
	}
	if int64(limit) > r.history {
		limit = int(r.history)
	}

	recent := r.recentKey()
	ids, err := r.store.LRange(ctx, recent, 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", recent, err)
	}

	out := make([]domain.Interaction, 0, len(ids))
	for _, id := range ids {
		in, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (r *Repo) recordKey(requestID string) string {
	return r.prefix + "interaction:" + requestID
}

func (r *Repo) recentKey() string {
	return r.prefix + "interactions:recent"
}
