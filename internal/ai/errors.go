package ai

import (
	"errors"

	"github.com/kiranshivaraju/dandi/internal/ai/llm"
)

var (
	ErrProviderUnavailable = llm.ErrProviderUnavailable
	ErrInferenceTimeout    = llm.ErrInferenceTimeout
	ErrInvalidResponse     = llm.ErrInvalidResponse
	ErrEmptyReadme         = errors.New("readme is empty")
)
