package domain

import "errors"

var (
	// ErrInvalidInput signals a malformed embedding or structure: zero-magnitude
	// vector, dimension mismatch after pooling, empty alpha-carbon subset, or too
	// few points for a well-defined superposition.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnscored signals a candidate missing the required score kind at selection time.
	ErrUnscored = errors.New("candidate not scored")

	// ErrEmbeddingProviderError signals an embedding inference provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrFoldingProviderError signals a structure prediction provider failure.
	ErrFoldingProviderError = errors.New("folding provider error")
	// ErrFoldJobFailed signals a structure prediction job that finished in a failed state.
	ErrFoldJobFailed = errors.New("fold job failed")
	// ErrFoldJobTimeout signals a structure prediction job that did not reach a
	// terminal state before the deadline.
	ErrFoldJobTimeout = errors.New("fold job timed out")
)
