package chat

import (
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var message string
	var sessionKey string
	var leadID string
	var debug bool

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"c"},
		Short:   "Talk to the sales agent",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return chatCmd(message, sessionKey, leadID, debug)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Send one message and exit")
	cmd.Flags().StringVarP(&sessionKey, "session", "s", "", "Session key (default cli:default)")
	cmd.Flags().StringVarP(&leadID, "lead", "l", "", "Lead ID to pin as the conversation subject")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
