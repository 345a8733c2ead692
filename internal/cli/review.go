package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/rating"
)

var (
	reviewAgent   string
	reviewSkill   string
	reviewRating  float64
	reviewComment string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Submit a one-shot usage-gated review",
	Run: func(cmd *cobra.Command, args []string) {
		if reviewAgent == "" || reviewSkill == "" {
			fail(fmt.Errorf("--agent and --skill are required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		rev, err := eng.SubmitReview(reviewAgent, reviewSkill, reviewRating, reviewComment)
		if err != nil {
			fail(err)
		}
		fmt.Printf("accepted: weight %.2f (usage %d)\n", rev.Weight, rev.UsageAtSubmission)
		if rev.FlaggedAbusive {
			color.Yellow("flagged as abusive: weight reduced to a tenth")
		}
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewAgent, "agent", "", "Reviewing agent ID")
	reviewCmd.Flags().StringVar(&reviewSkill, "skill", "", "Skill ID")
	reviewCmd.Flags().Float64Var(&reviewRating, "rating", 50, "Rating in [0,100]")
	reviewCmd.Flags().StringVar(&reviewComment, "comment", "", "Free-text comment")
}

var ratingSkill string

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Show the weighted review rating for a skill",
	Run: func(cmd *cobra.Command, args []string) {
		if ratingSkill == "" {
			fail(fmt.Errorf("--skill is required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		sum, err := eng.GetRating(ratingSkill)
		if errors.Is(err, rating.ErrNoReviews) {
			fmt.Println("no rating yet")
			return
		}
		if err != nil {
			fail(err)
		}
		fmt.Printf("%.2f over %d reviews (%d flagged)\n", sum.Weighted, sum.Reviews, sum.Flagged)
	},
}

func init() {
	ratingCmd.Flags().StringVar(&ratingSkill, "skill", "", "Skill ID")
}

var autoscoreSkill string

var autoscoreCmd = &cobra.Command{
	Use:   "autoscore",
	Short: "Show the telemetry composite score for a skill",
	Run: func(cmd *cobra.Command, args []string) {
		if autoscoreSkill == "" {
			fail(fmt.Errorf("--skill is required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		score, err := eng.GetAutoScore(autoscoreSkill)
		if err != nil {
			fail(err)
		}
		printHeader(fmt.Sprintf("%s (%d samples)", score.SkillID, score.Samples))
		fmt.Printf("  success   %6.1f\n", score.Success)
		fmt.Printf("  speed     %6.1f\n", score.Speed)
		fmt.Printf("  resource  %6.1f\n", score.Resource)
		fmt.Printf("  stability %6.1f\n", score.Stability)
		fmt.Printf("  composite %6.1f\n", score.Composite)
	},
}

func init() {
	autoscoreCmd.Flags().StringVar(&autoscoreSkill, "skill", "", "Skill ID")
}
