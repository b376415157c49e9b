package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type slowChecker struct{}

func (slowChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}).
		WithCriticalCheck("index", &mockChecker{}).
		WithCheck("embedding", &mockChecker{}).
		WithCheck("generation", &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "index", "embedding", "generation"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}).WithCheck("embedding", &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_OptionalComponentDegrades(t *testing.T) {
	svc := New(&mockDBPinger{}).
		WithCriticalCheck("index", &mockChecker{}).
		WithCheck("generation", &mockChecker{err: errors.New("no provider")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["generation"] != CheckError {
		t.Error("expected generation error")
	}
}

func TestCheck_CriticalComponentIsUnhealthy(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("db down")}).
		WithCriticalCheck("index", &mockChecker{err: errors.New("empty")}).
		WithCheck("embedding", &mockChecker{err: errors.New("emb down")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["index"] != CheckError || r.Checks["embedding"] != CheckError {
		t.Errorf("unexpected checks %v", r.Checks)
	}
}

func TestCheck_NilComponentsAbsent(t *testing.T) {
	svc := New(nil).WithCheck("embedding", nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(nil).WithCheck("generation", slowChecker{}).WithTimeout(10 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > time.Second {
		t.Fatal("check should be bounded by the timeout")
	}
	if r.Checks["generation"] != CheckError {
		t.Errorf("expected timed-out check to fail, got %q", r.Checks["generation"])
	}
}
