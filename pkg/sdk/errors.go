package proteinrank

import "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrUnscored               = domain.ErrUnscored
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrFoldingProviderError   = domain.ErrFoldingProviderError
	ErrFoldJobFailed          = domain.ErrFoldJobFailed
	ErrFoldJobTimeout         = domain.ErrFoldJobTimeout
)
