package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show leadline status",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return statusCmd()
		},
	}
}

func statusCmd() error {
	fmt.Printf("%s leadline v%s\n\n", internal.Logo, internal.GetVersion())

	configPath := internal.GetConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		fmt.Printf("Config:  not found (%s)\n", configPath)
		fmt.Println("Run `leadline chat` once to create it with defaults.")
		return nil
	}
	fmt.Printf("Config:  %s\n", configPath)

	rt, err := internal.BuildRuntime("cli:status")
	if err != nil {
		// Missing credentials still allow a partial status report.
		cfg, cfgErr := internal.LoadConfig()
		if cfgErr != nil {
			return cfgErr
		}
		fmt.Printf("Engine:  %s (not ready: %v)\n", cfg.Engine.Mode, err)
		return nil
	}
	cfg := rt.Cfg

	fmt.Printf("Engine:  %s\n", cfg.Engine.Mode)
	fmt.Printf("Agent:   %s (provider: %s)\n", cfg.Agent.Name, cfg.Agent.Provider)

	plan := rt.Quota.Snapshot()
	if plan.Active {
		fmt.Printf("Plan:    %s (unmetered)\n", plan.Name)
	} else {
		fmt.Printf("Plan:    %s, %d/%d free messages used\n", plan.Name, plan.UsageCount, plan.UsageLimit)
	}

	fmt.Printf("Leads:   %d in book\n", len(rt.Leads.All()))

	channels := []string{}
	if cfg.Channels.Slack.Enabled {
		channels = append(channels, "slack")
	}
	if cfg.Channels.Discord.Enabled {
		channels = append(channels, "discord")
	}
	if len(channels) == 0 {
		fmt.Println("Channels: none enabled")
	} else {
		fmt.Printf("Channels: %v\n", channels)
	}

	return nil
}
