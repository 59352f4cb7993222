package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modsentry/modsentry/pkg/engine"
	"github.com/modsentry/modsentry/pkg/logging"
)

var (
	statsConfigFile string
	statsChannel    string
	statsSender     string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learned state",
	Long: `Show per-channel thresholds, classifier training state and,
with --sender, the sender's reputation standing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(statsConfigFile)
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %v", err)
		}
		defer logger.Sync()

		eng, err := engine.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to build engine: %v", err)
		}
		defer eng.Close()

		ts := eng.Thresholds().Stats(statsChannel)
		fmt.Printf("Channel %s:\n", statsChannel)
		fmt.Printf("  Thresholds: escalate=%.2f moderate=%.2f flag=%.2f\n",
			ts.Tiers.Escalate, ts.Tiers.Moderate, ts.Tiers.Flag)
		fmt.Printf("  Learned: %v\n", ts.Custom)
		fmt.Printf("  Decisions: %d (false positives: %d, false negatives: %d)\n",
			ts.TotalDecisions, ts.FalsePositives, ts.FalseNegatives)

		if c := eng.Classifier(); c != nil {
			cs := c.Stats()
			fmt.Printf("Classifier (%s):\n", cs.Backend)
			fmt.Printf("  Trained: %v\n", cs.Trained)
			fmt.Printf("  Samples: %d spam, %d ham\n", cs.SpamSamples, cs.HamSamples)
			fmt.Printf("  Vocabulary: %d tokens\n", cs.Vocabulary)
		}

		if statsSender != "" {
			rep := eng.Reputation()
			level, next := rep.Level(statsSender)
			fmt.Printf("Sender %s:\n", statsSender)
			fmt.Printf("  Points: %d\n", rep.GetPoints(statsSender))
			fmt.Printf("  Level: %s", level)
			if next > 0 {
				fmt.Printf(" (next level at %d)", next)
			}
			fmt.Println()
			fmt.Printf("  Warnings: %d\n", rep.Warnings(statsSender))
			fmt.Printf("  Immune: %v\n", rep.IsImmune(statsSender))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsConfigFile, "config", "c", "", "Configuration file path")
	statsCmd.Flags().StringVar(&statsChannel, "channel", "default", "Channel ID")
	statsCmd.Flags().StringVar(&statsSender, "sender", "", "Sender ID")
}
