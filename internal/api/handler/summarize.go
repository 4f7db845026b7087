package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/dandi/internal/ai"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/gate"
	"github.com/kiranshivaraju/dandi/internal/github"
)

// Summarizer defines the interface the handler depends on.
type Summarizer interface {
	Summarize(ctx context.Context, owner, repo string) (*ai.SummaryResult, error)
}

type summarizeResponse struct {
	Summary       string         `json:"summary"`
	CoolFacts     []string       `json:"cool_facts"`
	Stars         *int           `json:"stars,omitempty"`
	LatestVersion *string        `json:"latestVersion"`
	WebsiteURL    string         `json:"websiteUrl"`
	LicenseType   *string        `json:"licenseType"`
	Provider      string         `json:"provider"`
	Model         string         `json:"model"`
	UsageInfo     gate.UsageInfo `json:"usageInfo"`
}

// NewSummarizeHandler returns an http.HandlerFunc for POST /api/github-summarizer.
// It must run behind the API-key gate.
func NewSummarizeHandler(svc Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := mw.GetAuthorized(r)
		if !ok {
			response.Gate(w, gate.InvalidKey{})
			return
		}

		var req struct {
			RepositoryURL string `json:"repositoryUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.RepositoryURL == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "repositoryUrl is required", nil)
			return
		}

		owner, repo, err := github.ParseURL(req.RepositoryURL)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_GITHUB_URL",
				"repositoryUrl must look like https://github.com/{owner}/{repo}", nil)
			return
		}

		result, err := svc.Summarize(r.Context(), owner, repo)
		if err != nil {
			switch {
			case errors.Is(err, github.ErrReadmeNotFound),
				errors.Is(err, github.ErrRepoNotFound),
				errors.Is(err, ai.ErrEmptyReadme):
				response.Error(w, http.StatusNotFound, "README_NOT_FOUND",
					"No README found for this repository", nil)
			case errors.Is(err, github.ErrUnreachable), errors.Is(err, github.ErrTimeout):
				response.Error(w, http.StatusBadGateway, "GITHUB_UNAVAILABLE",
					"GitHub could not be reached", nil)
			case errors.Is(err, ai.ErrInferenceTimeout):
				response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
					"AI summarization took too long and was cancelled", nil)
			case errors.Is(err, ai.ErrProviderUnavailable), errors.Is(err, ai.ErrInvalidResponse):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			default:
				slog.Error("summarizing repository", "owner", owner, "repo", repo, "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, newSummarizeResponse(result, auth.Usage))
	}
}

func newSummarizeResponse(result *ai.SummaryResult, usage gate.UsageInfo) summarizeResponse {
	facts := result.Summary.CoolFacts
	if facts == nil {
		facts = []string{}
	}
	resp := summarizeResponse{
		Summary:    result.Summary.Summary,
		CoolFacts:  facts,
		WebsiteURL: github.RepoURL(result.Owner, result.Repo),
		Provider:   result.Provider,
		Model:      result.Model,
		UsageInfo:  usage,
	}

	if md := result.Metadata; md != nil {
		stars := md.Stars
		resp.Stars = &stars
		if md.Homepage != "" {
			resp.WebsiteURL = md.Homepage
		}
		if md.License != nil {
			license := md.License.SPDXID
			if license == "" || license == "NOASSERTION" {
				license = md.License.Name
			}
			resp.LicenseType = &license
		}
		if rel := md.LatestVersion; rel != nil && rel.Tag != "" {
			tag := rel.Tag
			resp.LatestVersion = &tag
		}
	}
	return resp
}
