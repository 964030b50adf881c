package retrieval

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRepositoryRequired is returned when a passage repository is not provided.
	ErrRepositoryRequired = errors.New("passage repository required")

	// ErrNameRequired is returned when a backend is created without a name.
	ErrNameRequired = errors.New("backend name required")

	// ErrEmptyEmbedding is returned when the embedder yields an empty vector.
	ErrEmptyEmbedding = errors.New("embedder returned an empty vector")

	// ErrUnavailable is the default cause for a backend that could not be opened.
	ErrUnavailable = errors.New("backend unavailable")
)
