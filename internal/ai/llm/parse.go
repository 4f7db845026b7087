package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

// ParseSummary extracts a RepoSummary from raw model output. Markdown code
// fences and text around the JSON object are ignored.
func ParseSummary(raw string) (models.RepoSummary, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return models.RepoSummary{}, fmt.Errorf("%w: no JSON object in output", ErrInvalidResponse)
	}

	var out models.RepoSummary
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return models.RepoSummary{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return models.RepoSummary{}, fmt.Errorf("%w: empty summary", ErrInvalidResponse)
	}

	facts := make([]string, 0, len(out.CoolFacts))
	for _, f := range out.CoolFacts {
		if f = strings.TrimSpace(f); f != "" {
			facts = append(facts, f)
		}
	}
	out.CoolFacts = facts
	return out, nil
}
