package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/modsentry/modsentry/pkg/config"
	"github.com/modsentry/modsentry/pkg/engine"
	"github.com/modsentry/modsentry/pkg/logging"
	"github.com/modsentry/modsentry/pkg/message"
)

var (
	scoreConfigFile string
	scoreChannel    string
	scoreSender     string
	scoreStdin      bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [message text]",
	Short: "Score a message for spam",
	Long: `Score one message through the full pipeline and print the verdict.
With --stdin, reads one message per line and scores each.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(scoreConfigFile)
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

		ctx := context.Background()

		if scoreStdin {
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 64*1024), 64*1024)
			for scanner.Scan() {
				scoreOne(ctx, eng, scanner.Text())
			}
			return scanner.Err()
		}

		if len(args) == 0 {
			return fmt.Errorf("provide message text or use --stdin")
		}
		scoreOne(ctx, eng, strings.Join(args, " "))
		return nil
	},
}

func scoreOne(ctx context.Context, eng *engine.Engine, text string) {
	msg := &message.Message{
		ChannelID: scoreChannel,
		SenderID:  scoreSender,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	start := time.Now()
	v := eng.Score(ctx, msg)
	elapsed := time.Since(start)

	classification := "CLEAN"
	if v.IsSpam {
		classification = "SPAM"
	}

	fmt.Printf("Score: %.2f\n", v.Score)
	fmt.Printf("Classification: %s\n", classification)
	fmt.Printf("Action: %s\n", v.Action)
	if len(v.Categories) > 0 {
		fmt.Printf("Categories: %s\n", strings.Join(v.Categories, ", "))
	}
	for _, r := range v.Reasons {
		fmt.Printf("  - %s\n", r)
	}
	fmt.Printf("Processing time: %.2fms\n", float64(elapsed.Nanoseconds())/1e6)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}
	return cfg, nil
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfigFile, "config", "c", "", "Configuration file path")
	scoreCmd.Flags().StringVar(&scoreChannel, "channel", "default", "Channel ID")
	scoreCmd.Flags().StringVar(&scoreSender, "sender", "cli", "Sender ID")
	scoreCmd.Flags().BoolVar(&scoreStdin, "stdin", false, "Read messages from stdin, one per line")
}
