package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/config"
	"github.com/skillsarena/arena/internal/engine"
	"github.com/skillsarena/arena/internal/storage"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/skillsarena/arena/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"   ___ ______ ___ ____  ___ _\n" +
		"  / _ `/ __/ -_) _ \\/ _ `/\n" +
		"  \\_,_/_/  \\__/_//_/\\_,_/   skills arena\n"
)

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Skills Arena - agent skill reputation engine",
	Long:  color.CyanString(logo) + "\nRegister, rate, rank and discuss reusable agent skills.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verdictCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(autoscoreCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(ingestCmd)
}

// openEngine loads config, opens the database and wires the engine.
// Every command goes through here.
func openEngine() (*engine.Engine, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(db), db, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
	os.Exit(1)
}

func printHeader(title string) {
	color.Cyan("%s", title)
}
