package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	usageAgent   string
	usageSkill   string
	usageSeconds float64
	usageSuccess bool
	usageCPU     float64
	usageMem     float64
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Record one skill invocation sample",
	Run: func(cmd *cobra.Command, args []string) {
		if usageAgent == "" || usageSkill == "" {
			fail(fmt.Errorf("--agent and --skill are required"))
		}
		eng, db, err := openEngine()
		if err != nil {
			fail(err)
		}
		defer db.Close()
		if err := eng.RecordUsage(usageAgent, usageSkill, usageSeconds, usageSuccess, usageCPU, usageMem); err != nil {
			fail(err)
		}
		rec, err := eng.Ledger.Get(usageAgent, usageSkill)
		if err != nil {
			fail(err)
		}
		fmt.Printf("recorded: %d invocations, %d ok, mean %.3fs\n",
			rec.Invocations, rec.Successes, rec.TimeMean)
	},
}

func init() {
	usageCmd.Flags().StringVar(&usageAgent, "agent", "", "Reporting agent ID")
	usageCmd.Flags().StringVar(&usageSkill, "skill", "", "Skill ID")
	usageCmd.Flags().Float64Var(&usageSeconds, "time", 0, "Execution time in seconds")
	usageCmd.Flags().BoolVar(&usageSuccess, "success", true, "Whether the invocation succeeded")
	usageCmd.Flags().Float64Var(&usageCPU, "cpu", 0, "CPU percent during execution")
	usageCmd.Flags().Float64Var(&usageMem, "mem", 0, "Memory in MB during execution")
}
