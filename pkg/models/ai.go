// Package models contains shared data models used across the Dandi codebase.
package models

import "context"

// AIProvider is the core interface that all AI integrations must implement.
// Providers are always injected through this interface.
type AIProvider interface {
	// SummarizeRepository condenses a repository README into a summary and a list of facts.
	SummarizeRepository(ctx context.Context, req RepoSummaryRequest) (RepoSummary, error)
	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
	// Model returns the model the provider sends requests to.
	Model() string
}

// RepoSummaryRequest is the input to a summarization call.
type RepoSummaryRequest struct {
	Owner  string
	Repo   string
	Readme string
}

// RepoSummary is the structured output every provider must produce.
type RepoSummary struct {
	Summary   string   `json:"summary"`
	CoolFacts []string `json:"cool_facts"`
}
