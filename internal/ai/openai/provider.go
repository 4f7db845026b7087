package openai

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/ai/llm"
	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// Provider implements models.AIProvider using the OpenAI chat completions API
// in JSON mode.
type Provider struct {
	chat *llm.ChatClient
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{chat: &llm.ChatClient{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		JSONMode: true,
		HTTP:     &http.Client{},
	}}
}

func (p *Provider) Name() string  { return "openai" }
func (p *Provider) Model() string { return p.chat.Model }

func (p *Provider) SummarizeRepository(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	return llm.Summarize(ctx, p.chat.Complete, req)
}

var _ models.AIProvider = (*Provider)(nil)
