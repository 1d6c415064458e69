// Package config defines the leadline configuration file and its
// environment overlay.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Agent     AgentConfig     `json:"agent"`
	Engine    EngineConfig    `json:"engine"`
	Providers ProvidersConfig `json:"providers"`
	Quota     QuotaConfig     `json:"quota"`
	Storage   StorageConfig   `json:"storage"`
	Channels  ChannelsConfig  `json:"channels"`
	Gateway   GatewayConfig   `json:"gateway"`
	Cadence   CadenceConfig   `json:"cadence"`
}

// AgentConfig tunes the conversational agent itself.
type AgentConfig struct {
	Name          string   `env:"LEADLINE_AGENT_NAME"           json:"name"`
	Provider      string   `env:"LEADLINE_AGENT_PROVIDER"       json:"provider"`
	Model         string   `env:"LEADLINE_AGENT_MODEL"          json:"model,omitempty"`
	MaxTokens     int      `env:"LEADLINE_AGENT_MAX_TOKENS"     json:"max_tokens"`
	Temperature   *float64 `env:"LEADLINE_AGENT_TEMPERATURE"    json:"temperature,omitempty"`
	ThinkingLevel string   `env:"LEADLINE_AGENT_THINKING_LEVEL" json:"thinking_level"`
}

// EngineConfig selects where the agent engine runs. Mode "local" runs the
// provider in-process; "remote" calls an HTTP engine service.
type EngineConfig struct {
	Mode      string `env:"LEADLINE_ENGINE_MODE"       json:"mode"`
	BaseURL   string `env:"LEADLINE_ENGINE_BASE_URL"   json:"base_url,omitempty"`
	AuthToken string `env:"LEADLINE_ENGINE_AUTH_TOKEN" json:"auth_token,omitempty"`
}

type ProvidersConfig struct {
	Anthropic ProviderConfig `envPrefix:"LEADLINE_PROVIDERS_ANTHROPIC_" json:"anthropic"`
	OpenAI    ProviderConfig `envPrefix:"LEADLINE_PROVIDERS_OPENAI_"    json:"openai"`
}

type ProviderConfig struct {
	APIKey     string `env:"API_KEY"     json:"api_key"`
	APIBase    string `env:"API_BASE"    json:"api_base"`
	AuthMethod string `env:"AUTH_METHOD" json:"auth_method,omitempty"`
}

type QuotaConfig struct {
	Limit int    `env:"LEADLINE_QUOTA_LIMIT" json:"limit"`
	Path  string `env:"LEADLINE_QUOTA_PATH"  json:"path,omitempty"`
}

// StorageConfig locates the JSON state files.
type StorageConfig struct {
	ProfilePath string `env:"LEADLINE_STORAGE_PROFILE_PATH" json:"profile_path,omitempty"`
	LeadsPath   string `env:"LEADLINE_STORAGE_LEADS_PATH"   json:"leads_path,omitempty"`
}

type ChannelsConfig struct {
	Slack   SlackConfig   `json:"slack"`
	Discord DiscordConfig `json:"discord"`
}

type SlackConfig struct {
	Enabled   bool                `env:"LEADLINE_CHANNELS_SLACK_ENABLED"    json:"enabled"`
	BotToken  string              `env:"LEADLINE_CHANNELS_SLACK_BOT_TOKEN"  json:"bot_token"`
	AppToken  string              `env:"LEADLINE_CHANNELS_SLACK_APP_TOKEN"  json:"app_token"`
	AllowFrom FlexibleStringSlice `env:"LEADLINE_CHANNELS_SLACK_ALLOW_FROM" json:"allow_from"`
}

type DiscordConfig struct {
	Enabled   bool                `env:"LEADLINE_CHANNELS_DISCORD_ENABLED"    json:"enabled"`
	Token     string              `env:"LEADLINE_CHANNELS_DISCORD_TOKEN"      json:"token"`
	AllowFrom FlexibleStringSlice `env:"LEADLINE_CHANNELS_DISCORD_ALLOW_FROM" json:"allow_from"`
}

type GatewayConfig struct {
	Host string `env:"LEADLINE_GATEWAY_HOST" json:"host"`
	Port int    `env:"LEADLINE_GATEWAY_PORT" json:"port"`
}

type CadenceConfig struct {
	Backend            string `env:"LEADLINE_CADENCE_BACKEND"              json:"backend"`
	Schedule           string `env:"LEADLINE_CADENCE_SCHEDULE"             json:"schedule,omitempty"`
	MaxDials           int    `env:"LEADLINE_CADENCE_MAX_DIALS"            json:"max_dials"`
	MaxDurationMinutes int    `env:"LEADLINE_CADENCE_MAX_DURATION_MINUTES" json:"max_duration_minutes"`
	RespectDoNotCall   bool   `env:"LEADLINE_CADENCE_RESPECT_DO_NOT_CALL"  json:"respect_do_not_call"`
}

// DefaultConfig returns the built-in defaults, with state files under
// ~/.leadline.
func DefaultConfig() *Config {
	stateDir := defaultStateDir()
	return &Config{
		Agent: AgentConfig{
			Name:          "Assistant",
			Provider:      "anthropic",
			MaxTokens:     4096,
			ThinkingLevel: "medium",
		},
		Engine: EngineConfig{
			Mode: "local",
		},
		Quota: QuotaConfig{
			Limit: 10,
			Path:  filepath.Join(stateDir, "plan.json"),
		},
		Storage: StorageConfig{
			ProfilePath: filepath.Join(stateDir, "profile.json"),
			LeadsPath:   filepath.Join(stateDir, "leads.json"),
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 18800,
		},
		Cadence: CadenceConfig{
			Backend:            "simulated",
			MaxDials:           100,
			MaxDurationMinutes: 60,
			RespectDoNotCall:   true,
		},
	}
}

// LoadConfig reads the config file, falling back to defaults when it does
// not exist, then applies the LEADLINE_* environment overlay.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// DefaultConfigPath is where the CLI looks when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(defaultStateDir(), "config.json")
}

// ProviderAPIKey returns the key for the configured agent provider.
func (c *Config) ProviderAPIKey() string {
	switch c.Agent.Provider {
	case "openai", "gpt":
		return c.Providers.OpenAI.APIKey
	default:
		return c.Providers.Anthropic.APIKey
	}
}

// ProviderAPIBase returns the base URL override for the configured agent
// provider, if any.
func (c *Config) ProviderAPIBase() string {
	switch c.Agent.Provider {
	case "openai", "gpt":
		return c.Providers.OpenAI.APIBase
	default:
		return c.Providers.Anthropic.APIBase
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leadline"
	}
	return filepath.Join(home, ".leadline")
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}

// ExpandedQuotaPath returns the quota path with ~ expanded.
func (c *Config) ExpandedQuotaPath() string { return expandHome(c.Quota.Path) }

// ExpandedProfilePath returns the profile path with ~ expanded.
func (c *Config) ExpandedProfilePath() string { return expandHome(c.Storage.ProfilePath) }

// ExpandedLeadsPath returns the leads path with ~ expanded.
func (c *Config) ExpandedLeadsPath() string { return expandHome(c.Storage.LeadsPath) }
