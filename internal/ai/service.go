package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/dandi/internal/github"
	"github.com/kiranshivaraju/dandi/pkg/models"
	"golang.org/x/sync/errgroup"
)

// MaxReadmeBytes bounds the README text sent to a provider.
const MaxReadmeBytes = 30000

// SummaryResult is the output of a repository summarization.
// Metadata is nil when GitHub metadata could not be fetched.
type SummaryResult struct {
	Owner    string
	Repo     string
	Summary  models.RepoSummary
	Metadata *github.RepoMetadata
	Provider string
	Model    string
}

// SummaryService fetches a repository's README and metadata and asks the AI
// provider for a summary.
type SummaryService struct {
	provider models.AIProvider
	github   github.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(provider models.AIProvider, gh github.Client, timeout time.Duration, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{
		provider: provider,
		github:   gh,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *SummaryService) ProviderName() string { return s.provider.Name() }

// Summarize fetches README and metadata concurrently, then calls the provider.
// A README failure is returned as is; a metadata failure is logged and the
// result carries no metadata.
func (s *SummaryService) Summarize(ctx context.Context, owner, repo string) (*SummaryResult, error) {
	var (
		readme *github.Readme
		meta   *github.RepoMetadata
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.github.GetReadme(gctx, owner, repo)
		if err != nil {
			return err
		}
		readme = r
		return nil
	})
	g.Go(func() error {
		m, err := s.github.GetRepoMetadata(gctx, owner, repo)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("repository metadata unavailable", "owner", owner, "repo", repo, "error", err)
			}
			return nil
		}
		meta = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching readme: %w", err)
	}

	content := strings.TrimSpace(readme.Content)
	if content == "" {
		return nil, ErrEmptyReadme
	}

	summarizeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.provider.SummarizeRepository(summarizeCtx, models.RepoSummaryRequest{
		Owner:  owner,
		Repo:   repo,
		Readme: truncateString(content, MaxReadmeBytes),
	})
	if err != nil {
		if !errors.Is(err, ErrInferenceTimeout) && errors.Is(summarizeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, err
	}
	if summary.CoolFacts == nil {
		summary.CoolFacts = []string{}
	}

	return &SummaryResult{
		Owner:    owner,
		Repo:     repo,
		Summary:  summary,
		Metadata: meta,
		Provider: s.provider.Name(),
		Model:    s.provider.Model(),
	}, nil
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
