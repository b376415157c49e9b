package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed; answers fall back to templates.
	Degraded Status = "degraded"
	// Unhealthy indicates a critical component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name     string
	checker  Checker
	critical bool
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	components []component
	timeout    time.Duration
}

// New creates a Service. db can be nil.
func New(db DBPinger) *Service {
	return &Service{db: db, timeout: defaultCheckTimeout}
}

// WithCheck adds an optional component. Its failure degrades the service.
func (s *Service) WithCheck(name string, c Checker) *Service {
	if c != nil {
		s.components = append(s.components, component{name: name, checker: c})
	}
	return s
}

// WithCriticalCheck adds a component whose failure makes the service unhealthy.
func (s *Service) WithCriticalCheck(name string, c Checker) *Service {
	if c != nil {
		s.components = append(s.components, component{name: name, checker: c, critical: true})
	}
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components)+1)
	status := Healthy

	if s.db != nil {
		if err := s.run(ctx, s.db.Ping); err != nil {
			checks["database"] = CheckError
			status = Degraded
		} else {
			checks["database"] = CheckOK
		}
	}

	for _, c := range s.components {
		if err := s.run(ctx, c.checker.HealthCheck); err != nil {
			checks[c.name] = CheckError
			if c.critical {
				status = Unhealthy
			} else if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[c.name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return check(ctx)
}
