package research

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/pkg/session"
)

func NewResearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "research <company>",
		Aliases: []string{"r"},
		Short:   "Run a one-shot company lookup",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return researchCmd(args[0])
		},
	}
	return cmd
}

func researchCmd(company string) error {
	rt, err := internal.BuildRuntime("cli:research")
	if err != nil {
		return err
	}

	sess := session.New("cli:research")
	if err := rt.Controller.Research(context.Background(), sess, company); err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	snap := sess.Snapshot()
	if snap.ResearchResult == nil {
		if len(snap.Transcript) > 0 {
			fmt.Println(snap.Transcript[len(snap.Transcript)-1].Text)
		}
		return nil
	}

	rep := snap.ResearchResult
	fmt.Printf("%s Research: %s\n\n", internal.Logo, rep.Company)
	fmt.Printf("Summary: %s\n", rep.Summary)
	if rep.Leadership != "" {
		fmt.Printf("Leadership: %s\n", rep.Leadership)
	}
	for _, item := range rep.News {
		fmt.Printf("  • %s\n", item)
	}
	return nil
}
