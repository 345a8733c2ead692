package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/feed"
)

var (
	feedMode     string
	feedName     string
	feedUploader string
	feedLimit    int
	feedOffset   int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List validated skills ordered by hot, top or new",
	Run: func(cmd *cobra.Command, args []string) {
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		entries, err := eng.GetFeed(feed.Mode(feedMode),
			feed.Filters{Name: feedName, Uploader: feedUploader}, feedLimit, feedOffset)
		if err != nil {
			fail(err)
		}
		printHeader(fmt.Sprintf("feed (%s): %d skills", feedMode, len(entries)))
		for _, e := range entries {
			fmt.Printf("  %-40s %-10s hot %8.4f  score %4d  (%d up / %d down)\n",
				e.SkillID, e.Version, e.HotScore, e.VoteScore, e.Upvotes, e.Downvotes)
		}
	},
}

func init() {
	feedCmd.Flags().StringVar(&feedMode, "mode", "hot", "hot, top or new")
	feedCmd.Flags().StringVar(&feedName, "name", "", "Filter by canonical name")
	feedCmd.Flags().StringVar(&feedUploader, "uploader", "", "Filter by uploader agent")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 50, "Page size")
	feedCmd.Flags().IntVar(&feedOffset, "offset", 0, "Page offset")
}

var (
	leaderboardCategory string
	leaderboardLimit    int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank skills by overall, rating, usage, reviews or uploaders",
	Run: func(cmd *cobra.Command, args []string) {
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		board, err := eng.Feed.Leaderboard(feed.Category(leaderboardCategory), leaderboardLimit)
		if err != nil {
			fail(err)
		}
		printHeader(fmt.Sprintf("leaderboard (%s)", leaderboardCategory))
		for _, row := range board {
			ratingStr := "  --"
			if row.Rated {
				ratingStr = fmt.Sprintf("%4.1f", row.Rating)
			}
			fmt.Printf(" #%-3d %-30s %s  usage %6d  reviews %3d  uploaders %2d\n",
				row.Rank, row.Name, ratingStr, row.Usage, row.Reviews, row.Uploaders)
		}
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardCategory, "category", "overall", "overall, rating, usage, reviews or uploaders")
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 50, "Max rows")
}
