package mock

import (
	"context"

	"github.com/kiranshivaraju/dandi/internal/ai"
	"github.com/kiranshivaraju/dandi/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_         string
	Model_        string
	SummarizeFunc func(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error)
}

func (m *MockProvider) Name() string  { return m.Name_ }
func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) SummarizeRepository(ctx context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, req)
	}
	return models.RepoSummary{}, nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		SummarizeFunc: func(_ context.Context, req models.RepoSummaryRequest) (models.RepoSummary, error) {
			return models.RepoSummary{
				Summary:   "Mock summary of " + req.Owner + "/" + req.Repo,
				CoolFacts: []string{"Generated by the mock provider", "README length is irrelevant here"},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		SummarizeFunc: func(_ context.Context, _ models.RepoSummaryRequest) (models.RepoSummary, error) {
			return models.RepoSummary{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		SummarizeFunc: func(ctx context.Context, _ models.RepoSummaryRequest) (models.RepoSummary, error) {
			<-ctx.Done()
			return models.RepoSummary{}, ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
