package llm

import (
	"fmt"
	"time"

	"github.com/dotcommander/agentflow/internal/app"
)

// ResolveGateway builds the configured gateway from settings.
//
//	kind "openai" -> HTTPProvider (api_base + api_key + model)
//	kind "cli"    -> CLIRunner (model names the tool: claude, opencode)
func ResolveGateway(cfg app.LLMSettings) (Gateway, error) {
	switch cfg.Kind {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm kind %q requires an api key", cfg.Kind)
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		return NewHTTPProvider(cfg.APIKey, cfg.APIBase, cfg.Model, timeout), nil
	case "cli", "":
		return NewCLIRunner(cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm kind %q (supported: openai, cli)", cfg.Kind)
	}
}

// Timeout returns the per-call deadline for the configured gateway.
func Timeout(cfg app.LLMSettings) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
