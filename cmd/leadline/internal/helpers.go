package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/leadline-ai/leadline/pkg/auth"
	"github.com/leadline-ai/leadline/pkg/config"
	"github.com/leadline-ai/leadline/pkg/envelope"
	"github.com/leadline-ai/leadline/pkg/leads"
	"github.com/leadline-ai/leadline/pkg/metering"
	"github.com/leadline-ai/leadline/pkg/profile"
	"github.com/leadline-ai/leadline/pkg/providers"
	"github.com/leadline-ai/leadline/pkg/research"
	"github.com/leadline-ai/leadline/pkg/session"
	"github.com/leadline-ai/leadline/pkg/transport"
)

const Logo = "🤝"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".leadline", "config.json")
}

func GetCredentialsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".leadline", "credentials.json")
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// Runtime bundles the wired application state shared by subcommands.
type Runtime struct {
	Cfg        *config.Config
	Controller *session.Controller
	Quota      *metering.Quota
	Meters     *metering.MeterStore
	Profiles   *profile.Store
	Leads      *leads.Store
	Cache      *research.Cache
}

// BuildRuntime loads config and wires the engine transport, quota and
// stores for one process.
func BuildRuntime(sessionKey string) (*Runtime, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return BuildRuntimeWithConfig(cfg, sessionKey)
}

func BuildRuntimeWithConfig(cfg *config.Config, sessionKey string) (*Runtime, error) {
	quota := metering.NewQuotaWithLimit(cfg.ExpandedQuotaPath(), cfg.Quota.Limit)
	meters := metering.NewMeterStore()
	profiles := profile.NewStore(cfg.ExpandedProfilePath())
	leadBook := leads.NewStore(cfg.ExpandedLeadsPath())
	cache := research.NewCache()

	var tr transport.Transport
	if cfg.Engine.Mode == "remote" {
		httpTr, err := transport.NewHTTPTransport(cfg.Engine.BaseURL, cfg.Engine.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("error building remote transport: %w", err)
		}
		tr = httpTr
	} else {
		provider, err := buildProvider(cfg)
		if err != nil {
			return nil, err
		}
		opts := providers.Options{
			Model:     cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
		if cfg.Agent.Temperature != nil {
			opts.Temperature = *cfg.Agent.Temperature
			opts.HasTemp = true
		}
		tr = transport.NewEngine(transport.EngineConfig{
			Provider:   provider,
			Profiles:   profiles,
			Quota:      quota,
			Meters:     meters,
			Cache:      cache,
			Resolve:    subjectResolver(leadBook),
			SessionKey: sessionKey,
			Options:    opts,
		})
	}

	controller := session.NewController(tr, envelope.ThinkingLevel(cfg.Agent.ThinkingLevel))

	return &Runtime{
		Cfg:        cfg,
		Controller: controller,
		Quota:      quota,
		Meters:     meters,
		Profiles:   profiles,
		Leads:      leadBook,
		Cache:      cache,
	}, nil
}

func buildProvider(cfg *config.Config) (providers.Provider, error) {
	name := providerName(cfg)
	apiKey := cfg.ProviderAPIKey()
	if apiKey == "" {
		creds := auth.NewCredentialStore(GetCredentialsPath())
		if cred, ok := creds.Get(name); ok {
			apiKey = cred.AccessToken
			// OAuth tokens go stale; resolve through the store per call so
			// an expired token surfaces as an auth error, not a 401.
			if cred.AuthMethod == "oauth" && name == "anthropic" {
				return providers.NewAnthropicWithTokenSource(
					apiKey, creds.TokenSource(name, nil), cfg.ProviderAPIBase()), nil
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %q; run `leadline auth login`", name)
	}
	return providers.New(cfg.Agent.Provider, apiKey, cfg.ProviderAPIBase())
}

func providerName(cfg *config.Config) string {
	switch cfg.Agent.Provider {
	case "openai", "gpt":
		return "openai"
	default:
		return "anthropic"
	}
}

func subjectResolver(book *leads.Store) transport.SubjectResolver {
	return func(subjectID string) *profile.SubjectContext {
		lead, ok := book.Get(subjectID)
		if !ok {
			return nil
		}
		return &profile.SubjectContext{
			Name:    lead.Name,
			Company: lead.Company,
			Notes:   leads.SubjectNotes(lead),
		}
	}
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}
