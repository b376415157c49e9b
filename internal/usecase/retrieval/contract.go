package retrieval

import (
	"context"

	"github.com/kailas-cloud/genesis/internal/usecase/index"
)

// Index finds the nearest documents to a query.
type Index interface {
	Query(ctx context.Context, text string, topK int) ([]index.Hit, error)
}
