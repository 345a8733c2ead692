package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsarena/arena/internal/config"
	"github.com/skillsarena/arena/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Consume usage reports from Kafka into the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fail(err)
		}
		if !cfg.Kafka.Enabled {
			fail(fmt.Errorf("kafka ingest disabled; set ARENA_KAFKA_ENABLED=true or kafka.enabled in config"))
		}

		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		consumer := ingest.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, eng)
		consumer.Start(ctx)
		defer consumer.Close()

		printHeader(fmt.Sprintf("ingesting %s from %s", cfg.Kafka.Topic, cfg.Kafka.Brokers))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Println("shutting down")
	},
}
