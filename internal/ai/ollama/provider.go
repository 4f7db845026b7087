package ollama

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/ai/llm"
	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// Provider implements models.AIProvider using Ollama's OpenAI-compatible
// endpoint with JSON output enforced.
type Provider struct {
	chat *llm.ChatClient
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{chat: &llm.ChatClient{
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		JSONMode: true,
		HTTP:     &http.Client{},
	}}
}

func (p *Provider) Name() string  { return "ollama" }
func (p *Provider) Model() string { return p.chat.Model }

func (p *Provider) SummarizeRepository(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	return llm.Summarize(ctx, p.chat.Complete, req)
}

var _ models.AIProvider = (*Provider)(nil)
