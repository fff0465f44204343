package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/llm"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
)

// OutlineAgent drafts report outlines through an LLM
type OutlineAgent struct {
	llm    llm.LLMClient
	logger logger.Logger
}

// NewOutlineAgent creates a new outline agent
func NewOutlineAgent(client llm.LLMClient, log logger.Logger) *OutlineAgent {
	if log == nil {
		log = logger.Default()
	}
	return &OutlineAgent{
		llm:    client,
		logger: log.With("component", "outline_agent"),
	}
}

// OutlineRequest carries the user's request and the figures the model may cite
type OutlineRequest struct {
	BusinessID   string
	BusinessName string
	Prompt       string
	Snapshot     map[string]float64
}

// OutlineResult is a validated outline plus the raw body it was parsed from
type OutlineResult struct {
	Outline    *Outline
	Raw        string
	TokensUsed int
}

// Generate probes the backend, requests an outline and validates it.
// A failed probe is a configuration error and the real request is never sent.
// Any body that is not exactly the expected JSON object is a malformed response.
func (a *OutlineAgent) Generate(ctx context.Context, req OutlineRequest) (*OutlineResult, error) {
	if a.llm == nil {
		return nil, domain.NewConfigurationError("llm backend is not configured", nil)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.NewValidationError("prompt is required")
	}

	log := a.logger.With("business_id", req.BusinessID)
	start := time.Now()

	if err := a.llm.Ping(ctx); err != nil {
		log.Error("llm probe failed", "error", err)
		return nil, domain.NewConfigurationError("llm backend is unreachable or misconfigured", err)
	}

	keys := make([]string, 0, len(req.Snapshot))
	for k := range req.Snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resp, err := a.llm.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: llm.OutlineSystemPrompt},
			{Role: llm.RoleUser, Content: llm.OutlinePrompt(req.BusinessName, req.Prompt, req.Snapshot, keys)},
		},
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm outline request failed: %w", err)
	}

	outline, err := ParseOutline(resp.Message)
	if err != nil {
		log.Warn("llm returned an unusable outline", "error", err, "duration", time.Since(start))
		return nil, err
	}

	log.Info("outline drafted",
		"highlights", len(outline.ExecutiveSummary.KeyHighlights),
		"visualizations", len(outline.Visualizations),
		"tokens", resp.TokensUsed,
		"duration", time.Since(start))

	return &OutlineResult{Outline: outline, Raw: resp.Message, TokensUsed: resp.TokensUsed}, nil
}

// ParseOutline decodes and validates a raw model body. Surrounding whitespace is the
// only thing tolerated; fenced or prefixed JSON is rejected.
func ParseOutline(raw string) (*Outline, error) {
	body := strings.TrimSpace(raw)

	var outline Outline
	if err := json.Unmarshal([]byte(body), &outline); err != nil {
		return nil, domain.NewMalformedResponseError("llm response is not valid JSON", raw, err)
	}

	if missing := outline.missingSections(); len(missing) > 0 {
		return nil, domain.NewMalformedResponseError(
			fmt.Sprintf("llm response is missing sections: %s", strings.Join(missing, ", ")), raw, nil)
	}
	if len(outline.ExecutiveSummary.KeyHighlights) == 0 {
		return nil, domain.NewMalformedResponseError("executive_summary.key_highlights is empty", raw, nil)
	}
	if len(outline.Visualizations) == 0 {
		return nil, domain.NewMalformedResponseError("visualizations is empty", raw, nil)
	}

	return &outline, nil
}
