package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/authcmd"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/cadencecmd"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/chat"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/gateway"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/leadscmd"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/research"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/status"
	"github.com/leadline-ai/leadline/cmd/leadline/internal/version"
)

func NewLeadlineCommand() *cobra.Command {
	short := fmt.Sprintf("%s leadline - AI Sales Agent v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "leadline",
		Short:   short,
		Example: "leadline chat",
	}

	cmd.AddCommand(
		chat.NewChatCommand(),
		research.NewResearchCommand(),
		leadscmd.NewLeadsCommand(),
		cadencecmd.NewCadenceCommand(),
		gateway.NewGatewayCommand(),
		authcmd.NewAuthCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewLeadlineCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
