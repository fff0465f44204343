package llm

import (
	"fmt"
	"strings"
)

// PingPrompt is the connectivity probe body
const PingPrompt = "ping"

// OutlineSystemPrompt pins the JSON schema of a drafted sustainability report outline
const OutlineSystemPrompt = `You are a sustainability reporting specialist. You draft report outlines for small and medium businesses from their tracked metrics.

Respond with a single JSON object and nothing else. No markdown, no code fences, no commentary.

The object MUST have exactly these top-level keys:

{
  "executive_summary": {
    "overview": "string",
    "key_highlights": ["string"],
    "recommendations": ["string"]
  },
  "environmental_impact": {
    "summary": "string",
    "achievements": ["string"],
    "metrics": [{"name": "string", "value": 0, "unit": "string", "trend": "up|down|stable"}]
  },
  "social_contributions": {
    "summary": "string",
    "initiatives": ["string"]
  },
  "governance_performance": {
    "summary": "string",
    "policies": ["string"]
  },
  "future_goals": {
    "short_term": ["string"],
    "long_term": ["string"]
  },
  "visualizations": [{"type": "bar|line|pie|table|timeline|infographic", "title": "string", "metric": "string"}]
}

Rules:
1. key_highlights must contain at least one entry
2. visualizations must contain at least one entry
3. Only use figures present in the data snapshot; never invent numbers
4. Keep every string under 300 characters`

// OutlinePrompt builds the user prompt for an outline draft
func OutlinePrompt(businessName, request string, snapshot map[string]float64, keys []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Business: %s\n", businessName)
	fmt.Fprintf(&b, "Request: %s\n\n", strings.TrimSpace(request))
	b.WriteString("Data snapshot:\n")
	if len(keys) == 0 {
		b.WriteString("- no metrics recorded yet\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %.2f\n", k, snapshot[k])
	}
	b.WriteString("\nDraft the report outline now.")

	return b.String()
}
