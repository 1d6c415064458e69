package cadencecmd

import (
	"github.com/spf13/cobra"
)

func NewCadenceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cadence",
		Short: "Run outbound call cadences",
	}
	cmd.AddCommand(newRunCommand(), newNextCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	var name string
	var backend string
	var maxDials int
	var maxMinutes int
	var ignoreDNC bool
	var leadIDs []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dial the lead book now",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCmd(name, backend, maxDials, maxMinutes, ignoreDNC, leadIDs)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "Outbound cadence", "Cadence name")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Dialer backend (default from config)")
	cmd.Flags().IntVar(&maxDials, "max-dials", 0, "Dial limit (default from config)")
	cmd.Flags().IntVar(&maxMinutes, "max-minutes", 0, "Duration limit in minutes (default from config)")
	cmd.Flags().BoolVar(&ignoreDNC, "ignore-dnc", false, "Dial leads flagged do-not-call")
	cmd.Flags().StringSliceVarP(&leadIDs, "lead", "l", nil, "Restrict to specific lead IDs (repeatable)")

	return cmd
}

func newNextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next scheduled cadence fire time",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return nextCmd()
		},
	}
}
