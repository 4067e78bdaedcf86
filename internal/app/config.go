package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/agentflow/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "agentflow"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# agentflow configuration
# Run: agentflow --help

# Optional: override the SQLite database location.
# Can also be set via AGENTFLOW_DB_PATH or --db-path.
# db_path: ~/.config/agentflow/agentflow.db

# LLM gateway used by "agentflow generate".
# kind: openai  -> OpenAI-compatible HTTP API (api_base + api_key)
# kind: cli     -> external CLI binary (claude or opencode), no key needed
# llm:
#   kind: cli
#   api_base: https://api.openai.com/v1
#   api_key: ""
#   model: gpt-4o-mini
#   timeout_seconds: 60

# Slack incoming webhook for human-action notifications. Empty disables.
# slack:
#   webhook_url: ""
`
