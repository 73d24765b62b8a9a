package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zeroterm/zeroterm/internal/demo"
)

var demoFailIDs []string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Open the triage interface on a built-in sample inbox",
	Long: `Open the triage interface on a deterministic in-memory inbox with no
mail server involved. Every operation works - grouping, conversations,
bulk archive/delete, undo - so demo is the quickest way to learn the
keys without risking real mail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(demo.NewClient(demo.WithFailingIDs(demoFailIDs...)), "demo")
	},
}

func init() {
	demoCmd.Flags().StringSliceVar(&demoFailIDs, "fail-ids", nil,
		"message ids the fake backend rejects, for exercising partial failures")
	rootCmd.AddCommand(demoCmd)
}
