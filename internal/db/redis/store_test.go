package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/genesis/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return NewStoreForTest(c), c
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error on the second ping")
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).AnyTimes()

	if err := s.WaitForReady(context.Background(), 250*time.Millisecond); err == nil {
		t.Fatal("expected timeout")
	}
}

// Each case issues one command and expects it on the wire verbatim.
func TestCommands(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		expect []string
		reply  rueidis.RedisMessage
		call   func(s *Store) error
	}{
		{
			name:   "set",
			expect: []string{"SET", "genesis:interaction:1", "{}"},
			reply:  mock.RedisString("OK"),
			call: func(s *Store) error {
				return s.Set(ctx, "genesis:interaction:1", []byte("{}"))
			},
		},
		{
			name:   "set with ttl",
			expect: []string{"SET", "k", "v", "EX", "60"},
			reply:  mock.RedisString("OK"),
			call: func(s *Store) error {
				return s.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
			},
		},
		{
			name:   "zero ttl falls back to plain set",
			expect: []string{"SET", "k", "v"},
			reply:  mock.RedisString("OK"),
			call: func(s *Store) error {
				return s.SetWithTTL(ctx, "k", []byte("v"), 0)
			},
		},
		{
			name:   "del",
			expect: []string{"DEL", "k"},
			reply:  mock.RedisInt64(1),
			call:   func(s *Store) error { return s.Del(ctx, "k") },
		},
		{
			name:   "lpush",
			expect: []string{"LPUSH", "genesis:interactions:recent", "a", "b"},
			reply:  mock.RedisInt64(2),
			call: func(s *Store) error {
				return s.LPush(ctx, "genesis:interactions:recent", "a", "b")
			},
		},
		{
			name:   "ltrim",
			expect: []string{"LTRIM", "recent", "0", "99"},
			reply:  mock.RedisString("OK"),
			call:   func(s *Store) error { return s.LTrim(ctx, "recent", 0, 99) },
		},
		{
			name:   "lrem",
			expect: []string{"LREM", "recent", "0", "req-1"},
			reply:  mock.RedisInt64(1),
			call:   func(s *Store) error { return s.LRem(ctx, "recent", "req-1") },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.expect...)).Return(mock.Result(tc.reply))

			if err := tc.call(s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLPush_NoValuesIsNoop(t *testing.T) {
	s, _ := newMockStore(t)
	if err := s.LPush(context.Background(), "recent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "hit")).Return(mock.Result(mock.RedisBlobString("value")))
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "miss")).Return(mock.Result(mock.RedisNil()))
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "down")).Return(mock.ErrorResult(context.DeadlineExceeded))
	ctx := context.Background()

	data, err := s.Get(ctx, "hit")
	if err != nil || string(data) != "value" {
		t.Errorf("Get(hit) = %q, %v", data, err)
	}
	if _, err := s.Get(ctx, "miss"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	_, err = s.Get(ctx, "down")
	if errors.Is(err, db.ErrKeyNotFound) || !isDBError(err, db.OpGet) {
		t.Errorf("expected db.Error for GET, got %v", err)
	}
}

func TestLRange(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("LRANGE", "recent", "0", "1")).
		Return(mock.Result(mock.RedisArray(mock.RedisBlobString("id-2"), mock.RedisBlobString("id-1"))))
	c.EXPECT().Do(gomock.Any(), mock.Match("LRANGE", "broken", "0", "-1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))
	ctx := context.Background()

	vals, err := s.LRange(ctx, "recent", 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 2 || vals[0] != "id-2" || vals[1] != "id-1" {
		t.Errorf("unexpected values: %v", vals)
	}
	if _, err := s.LRange(ctx, "broken", 0, -1); !isDBError(err, db.OpLRange) {
		t.Errorf("expected db.Error for LRANGE, got %v", err)
	}
}

func TestDel_ErrorCarriesOp(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "k")).Return(mock.ErrorResult(context.DeadlineExceeded))

	if err := s.Del(context.Background(), "k"); !isDBError(err, db.OpDel) {
		t.Fatalf("expected db.Error for DEL, got %v", err)
	}
}

func isDBError(err error, op string) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr) && dbErr.Op == op
}
