package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/vote"
)

var (
	voteAgent     string
	voteTarget    string
	voteType      string
	voteDirection string
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast, change or cancel a vote on a skill or comment",
	Run: func(cmd *cobra.Command, args []string) {
		if voteAgent == "" || voteTarget == "" {
			fail(fmt.Errorf("--agent and --target are required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		tally, err := eng.CastVote(voteAgent, vote.TargetType(voteType), voteTarget, vote.Direction(voteDirection))
		if err != nil {
			fail(err)
		}
		fmt.Printf("up %d / down %d / score %d\n", tally.Upvotes, tally.Downvotes, tally.Score)
	},
}

func init() {
	voteCmd.Flags().StringVar(&voteAgent, "agent", "", "Voting agent ID")
	voteCmd.Flags().StringVar(&voteTarget, "target", "", "Target ID")
	voteCmd.Flags().StringVar(&voteType, "type", "skill", "Target type: skill or comment")
	voteCmd.Flags().StringVar(&voteDirection, "direction", "up", "up, down or none (cancel)")
}
