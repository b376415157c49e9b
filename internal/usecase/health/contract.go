package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks one component: the index, the embedding or generation provider.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
