package authcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/pkg/auth"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
	}
	cmd.AddCommand(newLoginCommand(), newLogoutCommand(), newStatusCommand())
	return cmd
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [provider]",
		Short: "Save an API key for a provider (default anthropic)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			provider := "anthropic"
			if len(args) > 0 {
				provider = args[0]
			}

			cred, err := auth.LoginPasteToken(provider, os.Stdin)
			if err != nil {
				return err
			}

			store := auth.NewCredentialStore(internal.GetCredentialsPath())
			if err := store.Put(cred); err != nil {
				return fmt.Errorf("error saving credential: %w", err)
			}
			fmt.Printf("✅ Credential saved for %s\n", provider)
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove a saved credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store := auth.NewCredentialStore(internal.GetCredentialsPath())
			if err := store.Delete(args[0]); err != nil {
				return fmt.Errorf("error removing credential: %w", err)
			}
			fmt.Printf("✅ Credential removed for %s\n", args[0])
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store := auth.NewCredentialStore(internal.GetCredentialsPath())
			found := false
			for _, provider := range []string{"anthropic", "openai"} {
				cred, ok := store.Get(provider)
				if !ok {
					continue
				}
				found = true
				state := "valid"
				if cred.Expired() {
					state = "expired"
				}
				fmt.Printf("  %-10s %-8s (%s)\n", provider, cred.AuthMethod, state)
			}
			if !found {
				fmt.Println("No credentials saved. Run `leadline auth login`.")
			}
			return nil
		},
	}
}
