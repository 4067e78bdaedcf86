package llm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dotcommander/agentflow/internal/models"
)

const disableExternalLLMEnv = "AGENTFLOW_DISABLE_EXTERNAL_LLM"

const claudeHooklessSettingsJSON = `{"hooks":{}}`

// CLIRunner dispatches analysis prompts to a local CLI tool.
// "claude" uses `claude -p`, "opencode" uses `opencode run`.
// No API keys required — the CLIs handle their own auth.
type CLIRunner struct {
	command string
	args    func(prompt string) []string
}

// NewCLIRunner returns a runner for the given tool name ("" defaults to
// claude). Returns an error if the tool is unknown or not found in PATH.
func NewCLIRunner(tool string) (*CLIRunner, error) {
	if strings.TrimSpace(os.Getenv(disableExternalLLMEnv)) != "" {
		return nil, fmt.Errorf("external LLM CLI execution disabled by %s", disableExternalLLMEnv)
	}

	r, err := resolveCLIRunner(tool)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(r.command); err != nil {
		return nil, fmt.Errorf("cli tool %q not found in PATH: %w", r.command, err)
	}
	return r, nil
}

// resolveCLIRunner maps tool name to CLI command + arg builder.
func resolveCLIRunner(tool string) (*CLIRunner, error) {
	name := strings.ToLower(strings.TrimSpace(tool))
	switch {
	case strings.HasPrefix(name, "opencode"):
		return &CLIRunner{
			command: "opencode",
			args:    func(p string) []string { return []string{"run", p} },
		}, nil
	case strings.HasPrefix(name, "claude"), name == "":
		return &CLIRunner{
			command: "claude",
			args: func(p string) []string {
				return []string{"-p", p, "--output-format", "text", "--settings", claudeHooklessSettingsJSON}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm cli tool %q (supported: claude, opencode)", tool)
	}
}

// Name identifies the gateway in provider errors.
func (r *CLIRunner) Name() string { return "cli:" + r.command }

// limitedWriter caps writes at maxBytes, silently discarding overflow.
// This prevents OOM from buggy CLIs emitting unbounded stderr.
type limitedWriter struct {
	buf      bytes.Buffer
	maxBytes int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	remaining := w.maxBytes - w.buf.Len()
	if remaining <= 0 {
		return originalLen, nil // discard but report success
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return originalLen, nil // always report original len to avoid short write errors
}

// Analyze runs the CLI with the analysis prompt and parses its output.
func (r *CLIRunner) Analyze(ctx context.Context, req *AnalysisRequest) (*models.Analysis, error) {
	prompt := buildAnalysisPrompt(req)
	if err := validatePrompt(prompt); err != nil {
		return nil, &models.ProviderError{Provider: r.Name(), Reason: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return nil, &models.ProviderError{Provider: r.Name(), Reason: fmt.Sprintf("context expired before exec: %v", err)}
	}

	args := r.args(prompt)
	cmd := exec.CommandContext(ctx, r.command, args...) //nolint:gosec // G204: command is a known LLM CLI binary resolved at construction
	cmd.Env = os.Environ()

	var stdout bytes.Buffer
	stderrW := &limitedWriter{maxBytes: 4096}
	cmd.Stdout = &stdout
	cmd.Stderr = stderrW

	if err := cmd.Run(); err != nil {
		stderrMsg := stderrW.buf.String()
		if stderrW.buf.Len() >= stderrW.maxBytes {
			stderrMsg += " (truncated)"
		}
		return nil, &models.ProviderError{
			Provider: r.Name(),
			Reason:   fmt.Sprintf("cli failed: %v (stderr: %s)", err, stderrMsg),
		}
	}

	analysis, err := ParseAnalysis(strings.TrimSpace(stdout.String()))
	if err != nil {
		return nil, &models.ProviderError{Provider: r.Name(), Reason: err.Error()}
	}
	return analysis, nil
}

// Command returns the CLI command name for this runner.
func (r *CLIRunner) Command() string {
	return r.command
}
