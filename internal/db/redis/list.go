package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/genesis/internal/db"
)

// LPush prepends values to the list at key.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	cmd := s.b().Lpush().Key(key).Element(values...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// LTrim keeps only the elements in [start, stop].
func (s *Store) LTrim(ctx context.Context, key string, start, stop int64) error {
	cmd := s.b().Ltrim().Key(key).Start(start).Stop(stop).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// LRem removes every occurrence of value from the list at key.
func (s *Store) LRem(ctx context.Context, key, value string) error {
	cmd := s.b().Lrem().Key(key).Count(0).Element(value).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLRem, Err: err}
	}
	return nil
}

// LRange returns the elements in [start, stop]. A missing key yields an empty slice.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return []string{}, nil
		}
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return vals, nil
}
