package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database counts and configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fail(err)
		}
		_, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		printHeader("Skills Arena")
		fmt.Printf("  db      %s\n", cfg.Storage.Path)
		for _, table := range []string{"skills", "skill_uploaders", "usage_records", "reviews", "votes", "comments"} {
			var n int
			if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
				fail(err)
			}
			fmt.Printf("  %-16s %d\n", table, n)
		}
		if cfg.Kafka.Enabled {
			fmt.Printf("  kafka   %s topic=%s group=%s\n", cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		}
	},
}
