package llm

import (
	"context"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

// CompleteFunc sends a system and user prompt to a model and returns its reply.
type CompleteFunc func(ctx context.Context, system, user string) (string, error)

// Summarize runs the summary prompt through complete and parses the reply.
func Summarize(ctx context.Context, complete CompleteFunc, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	raw, err := complete(ctx, SystemPrompt, BuildSummaryPrompt(req))
	if err != nil {
		return models.RepoSummary{}, err
	}
	return ParseSummary(raw)
}
