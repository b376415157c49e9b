package genesis

import "github.com/kailas-cloud/genesis/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrNotFound               = domain.ErrNotFound
	ErrConfiguration          = domain.ErrConfiguration
	ErrGeneration             = domain.ErrGeneration
	ErrRetrieval              = domain.ErrRetrieval
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
