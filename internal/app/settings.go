package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml with an
// AGENTFLOW_* environment overlay. Env wins over file.
type Settings struct {
	DBPath string        `yaml:"db_path" envconfig:"DB_PATH"`
	LLM    LLMSettings   `yaml:"llm"`
	Slack  SlackSettings `yaml:"slack"`
}

// LLMSettings selects and configures the LLM gateway.
type LLMSettings struct {
	Kind           string `yaml:"kind" envconfig:"LLM_KIND"`
	APIBase        string `yaml:"api_base" envconfig:"LLM_API_BASE"`
	APIKey         string `yaml:"api_key" envconfig:"LLM_API_KEY"`
	Model          string `yaml:"model" envconfig:"LLM_MODEL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"LLM_TIMEOUT_SECONDS"`
}

// SlackSettings configures the notification gateway. An empty webhook URL
// disables notifications entirely.
type SlackSettings struct {
	WebhookURL string `yaml:"webhook_url" envconfig:"SLACK_WEBHOOK_URL"`
}

const (
	defaultLLMKind       = "cli"
	defaultLLMTimeoutSec = 60
)

// EffectiveLLMSettings returns validated LLM settings with defaults applied.
func (s Settings) EffectiveLLMSettings() LLMSettings {
	cfg := s.LLM
	if cfg.Kind == "" {
		cfg.Kind = defaultLLMKind
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultLLMTimeoutSec
	}
	if cfg.TimeoutSeconds > 600 {
		cfg.TimeoutSeconds = 600
	}
	return cfg
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// dbPathOverrideMu and dbPathOverride implement a mutex-protected process-wide override for CLI --db-path.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	dbPathOverride = path
	dbPathOverrideMu.Unlock()
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	v := dbPathOverride
	dbPathOverrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/agentflow/config.yaml
// 2) /etc/agentflow/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// AGENTFLOW_* environment variables are applied on top of whichever file won.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings, settingsErr = loadSettings()
	})

	return settings, settingsErr
}

func loadSettings() (Settings, error) {
	var s Settings

	dir, err := ConfigDir()
	if err != nil {
		return Settings{}, err
	}

	paths := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "agentflow", "config.yaml"),
		"config.yaml",
	}
	for _, p := range paths {
		loaded, loadErr := loadSettingsFile(p)
		if loadErr == nil {
			s = loaded
			break
		}
		if !errors.Is(loadErr, os.ErrNotExist) {
			return Settings{}, loadErr
		}
	}

	if err := envconfig.Process("agentflow", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
