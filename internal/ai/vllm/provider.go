package vllm

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/ai/llm"
	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// Provider implements models.AIProvider using vLLM's OpenAI-compatible server.
type Provider struct {
	chat *llm.ChatClient
}

func NewProvider(cfg config.VLLMConfig) *Provider {
	return &Provider{chat: &llm.ChatClient{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		HTTP:    &http.Client{},
	}}
}

func (p *Provider) Name() string  { return "vllm" }
func (p *Provider) Model() string { return p.chat.Model }

func (p *Provider) SummarizeRepository(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	return llm.Summarize(ctx, p.chat.Complete, req)
}

var _ models.AIProvider = (*Provider)(nil)
