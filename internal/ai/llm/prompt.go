package llm

import (
	"fmt"

	"github.com/kiranshivaraju/dandi/pkg/models"
)

// SystemPrompt sets the output contract for every provider.
const SystemPrompt = `You summarize GitHub repositories from their README. ` +
	`Respond with a single JSON object and nothing else, shaped as ` +
	`{"summary": string, "cool_facts": [string]}.`

// Temperature is the sampling temperature used for summaries.
const Temperature = 0.3

// MaxOutputTokens caps the length of a summary response.
const MaxOutputTokens = 1024

// BuildSummaryPrompt renders the user prompt for one repository.
func BuildSummaryPrompt(req models.RepoSummaryRequest) string {
	return fmt.Sprintf(`Summarize this GitHub repository from this README file content.

Repository: %s/%s

README Content:
%s

Please provide:
1. A comprehensive summary of what this repository is about, its main purpose, key features, and target audience
2. A list of cool/interesting facts about the repository (technologies used, notable features, achievements, etc.)

Return your response as a JSON object with 'summary' (string) and 'cool_facts' (array of strings) fields.`,
		req.Owner, req.Repo, req.Readme)
}
