// Package llm turns free-text user intent into a structured task analysis
// by way of an external model. Two gateways exist: an OpenAI-compatible
// HTTP provider and an external CLI runner. Both return the same Analysis
// shape; both treat any transport, timeout, or parse failure as a provider
// error the orchestrator surfaces without writing rows.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dotcommander/agentflow/internal/models"
)

// TaskContext is the slice of an existing task shown to the model so it
// avoids proposing duplicates.
type TaskContext struct {
	Title        string `json:"title"`
	Status       string `json:"status"`
	IsDependency bool   `json:"is_dependency"`
}

// AnalysisRequest carries everything the model needs for one analysis.
type AnalysisRequest struct {
	UserInput     string
	AgentGoal     string
	AgentBehavior string
	ExistingTasks []TaskContext
	UserID        string
}

// Gateway produces a task analysis from a request. Implementations must
// respect ctx cancellation; callers set the timeout.
type Gateway interface {
	Analyze(ctx context.Context, req *AnalysisRequest) (*models.Analysis, error)
	Name() string
}

// buildAnalysisPrompt renders the request into a single prompt demanding
// strict JSON output. Both gateways share it so the parse contract is
// identical regardless of transport.
func buildAnalysisPrompt(req *AnalysisRequest) string {
	var b strings.Builder

	b.WriteString("You are a planning assistant for an autonomous agent. ")
	b.WriteString("Decompose the user's request into concrete tasks the agent can do itself, ")
	b.WriteString("and dependencies that require a human to provide something first ")
	b.WriteString("(credentials, approvals, access, decisions).\n\n")

	b.WriteString("Agent goal: ")
	b.WriteString(req.AgentGoal)
	b.WriteString("\n")
	if req.AgentBehavior != "" {
		b.WriteString("Agent behavior notes: ")
		b.WriteString(req.AgentBehavior)
		b.WriteString("\n")
	}

	if len(req.ExistingTasks) > 0 {
		b.WriteString("\nExisting tasks (do not propose duplicates):\n")
		for _, t := range req.ExistingTasks {
			kind := "task"
			if t.IsDependency {
				kind = "dependency"
			}
			fmt.Fprintf(&b, "- [%s, %s] %s\n", kind, t.Status, t.Title)
		}
	}

	b.WriteString("\nUser request: ")
	b.WriteString(req.UserInput)
	b.WriteString("\n\n")

	b.WriteString("Respond with ONLY a JSON object, no prose, matching:\n")
	b.WriteString(`{"user_need_analysis": "one-sentence summary",` + "\n")
	b.WriteString(` "tasks": [{"title": "...", "description": "...", "priority": "low|medium|high|urgent"}],` + "\n")
	b.WriteString(` "dependencies": [{"title": "...", "reason": "what the human must provide", "priority": "low|medium|high|urgent"}],` + "\n")
	b.WriteString(` "recommended_flow": ["title", "title"]}` + "\n")

	return b.String()
}

// ParseAnalysis decodes model output into an Analysis. Models wrap JSON in
// markdown fences often enough that stripping them is part of the contract.
func ParseAnalysis(raw string) (*models.Analysis, error) {
	cleaned := stripCodeFences(raw)

	// Tolerate prose before/after the object by slicing to the outermost braces.
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("malformed analysis JSON: %w", err)
	}

	for i, t := range analysis.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("task %d has an empty title", i)
		}
	}
	for i, d := range analysis.Dependencies {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("dependency %d has an empty title", i)
		}
		if strings.TrimSpace(d.Reason) == "" {
			return nil, fmt.Errorf("dependency %d (%s) has an empty reason", i, d.Title)
		}
	}

	return &analysis, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// validatePrompt checks for unsafe or oversized prompts before handing them
// to a transport. While Go's exec avoids shell injection (no shell involved),
// this is defense-in-depth: external CLIs may be shell scripts.
func validatePrompt(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("empty prompt")
	}
	if len(s) > 16000 {
		return fmt.Errorf("prompt exceeds 16000 byte limit (%d bytes)", len(s))
	}
	if strings.ContainsRune(s, 0) {
		return fmt.Errorf("prompt contains null byte")
	}
	return nil
}
