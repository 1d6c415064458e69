package leadscmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
)

func NewLeadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leads",
		Aliases: []string{"l"},
		Short:   "Manage the lead book",
	}
	cmd.AddCommand(newImportCommand(), newListCommand())
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import leads from a CRM CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rt, err := internal.BuildRuntime("cli:leads")
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			n, err := rt.Leads.IngestCSV(f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("✅ Imported %d leads\n", n)
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List leads by score",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := internal.BuildRuntime("cli:leads")
			if err != nil {
				return err
			}

			all := rt.Leads.All()
			if len(all) == 0 {
				fmt.Println("No leads yet. Run `leadline leads import <file.csv>` first.")
				return nil
			}
			for _, lead := range all {
				dnc := ""
				if lead.DoNotCall {
					dnc = " 🚫"
				}
				fmt.Printf("[%3d] %-24s %-20s %s%s\n", lead.Score, lead.Name, lead.Company, lead.Status, dnc)
			}
			return nil
		},
	}
}
