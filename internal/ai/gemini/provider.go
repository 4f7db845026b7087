package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/kiranshivaraju/dandi/internal/ai/llm"
	"github.com/kiranshivaraju/dandi/internal/config"
	"github.com/kiranshivaraju/dandi/pkg/models"
	"google.golang.org/api/option"
)

// Provider implements models.AIProvider using the Gemini API. The underlying
// client holds a connection and must be closed.
type Provider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(llm.Temperature)
	model.SetMaxOutputTokens(llm.MaxOutputTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(llm.SystemPrompt))

	return &Provider{client: client, model: model, name: cfg.Model}, nil
}

func (p *Provider) Name() string  { return "gemini" }
func (p *Provider) Model() string { return p.name }

func (p *Provider) Close() error { return p.client.Close() }

func (p *Provider) SummarizeRepository(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	return llm.Summarize(ctx, p.complete, req)
}

// complete ignores system; it is installed on the model as SystemInstruction.
func (p *Provider) complete(ctx context.Context, _, user string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", llm.ErrInferenceTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text in gemini response", llm.ErrInvalidResponse)
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ models.AIProvider = (*Provider)(nil)
