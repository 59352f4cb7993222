package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "modsentry",
	Short: "ModSentry - chat moderation heuristics engine",
	Long: `ModSentry scores chat messages for spam, scams and abuse using a
layered pipeline: hard disqualifiers, weighted heuristics, a trainable
classifier and conversational context, with per-channel adaptive
thresholds and sender reputation.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ModSentry - chat moderation heuristics engine")
		fmt.Println("Use 'modsentry --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statsCmd)
}
