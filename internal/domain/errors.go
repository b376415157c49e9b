package domain

import "errors"

var (
	// ErrRetrieval signals an index or embedding failure during retrieval.
	// Callers degrade to an empty retrieval report.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals a text-generation failure (transport, auth, malformed or empty response).
	// Callers degrade to deterministic fallback text.
	ErrGeneration = errors.New("generation failed")
	// ErrConfiguration signals missing or invalid policy configuration. Fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals an empty or malformed user query.
	ErrInvalidQuery = errors.New("invalid query")
)
