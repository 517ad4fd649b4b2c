package gemini

import (
	"fmt"
	"strings"

	"github.com/grovelane/miniaudit-api/internal/entity"
)

func recommendationPrompt(lead *entity.Lead, services []entity.Service) string {
	var catalog strings.Builder
	for _, svc := range services {
		fmt.Fprintf(&catalog, "- %s", svc.Name)
		if svc.Summary != "" {
			fmt.Fprintf(&catalog, ": %s", svc.Summary)
		}
		catalog.WriteString("\n")
	}

	return fmt.Sprintf(`You are a marketing consultant preparing a mini-audit for a prospect.

Prospect profile:
- Name: %s
- Company: %s
- Job title: %s
- Company size: %s
- Main challenge: %s
- Improvement goal: %s

Available services (pick only from this list, use the exact names):
%s
Select the 2 to 4 most relevant services and personalize them for this
prospect. Respond with ONLY a JSON object of this exact shape:

{"recommendations": [{"serviceName": "<exact name from the list>", "priority": 1, "problemDescription": "<the prospect's problem in their terms>", "impactDescription": "<what solving it changes for them>", "benefits": ["<benefit>", "<benefit>", "<benefit>"]}]}

priority is 1 (high), 2 (medium) or 3 (low). Order entries from most to
least relevant.`,
		lead.Name, lead.Company, lead.JobTitle, lead.CompanySize,
		lead.Challenge, lead.ImprovementGoal, catalog.String(),
	)
}

func contextPrompt(lead *entity.Lead) string {
	return fmt.Sprintf(`You are a marketing consultant writing the narrative part of a mini-audit.

Prospect profile:
- Company: %s
- Company size: %s
- Main challenge: %s
- Improvement goal: %s

Write a short, specific analysis of their situation. Respond with ONLY a
JSON object of this exact shape:

{"overview": "<2-3 sentence summary of their situation>", "narrative": "<one paragraph of analysis connecting their challenge to their goal>"}`,
		lead.Company, lead.CompanySize, lead.Challenge, lead.ImprovementGoal,
	)
}
