package ingestion

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrMissingColumn is returned when the source lacks a required column.
	ErrMissingColumn = errors.New("required column missing")

	// ErrEmptyDataset is returned when the source holds no usable rows.
	ErrEmptyDataset = errors.New("dataset has no usable rows")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count does not match batch size")

	// ErrInvalidTarget is returned when a target is missing a collaborator.
	ErrInvalidTarget = errors.New("invalid ingestion target")
)
