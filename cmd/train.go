package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modsentry/modsentry/pkg/learning"
	"github.com/modsentry/modsentry/pkg/logging"
)

var (
	trainConfigFile string
	trainSpamFile   string
	trainHamFile    string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier from labeled message files",
	Long: `Train the statistical classifier from text files containing one
message per line. Provide --spam, --ham or both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainSpamFile == "" && trainHamFile == "" {
			return fmt.Errorf("provide --spam and/or --ham")
		}

		cfg, err := loadConfig(trainConfigFile)
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %v", err)
		}
		defer logger.Sync()

		classifier, err := learning.New(cfg.Learning, logger)
		if err != nil {
			return fmt.Errorf("failed to build classifier: %v", err)
		}

		spamCount, err := feedExamples(trainSpamFile, classifier.AddSpamExample)
		if err != nil {
			return err
		}
		hamCount, err := feedExamples(trainHamFile, classifier.AddHamExample)
		if err != nil {
			return err
		}

		stats := classifier.Stats()
		fmt.Printf("Training complete:\n")
		fmt.Printf("  Spam examples added: %d\n", spamCount)
		fmt.Printf("  Ham examples added: %d\n", hamCount)
		fmt.Printf("  Total spam samples: %d\n", stats.SpamSamples)
		fmt.Printf("  Total ham samples: %d\n", stats.HamSamples)
		fmt.Printf("  Vocabulary size: %d\n", stats.Vocabulary)
		fmt.Printf("  Backend: %s\n", stats.Backend)
		return nil
	},
}

func feedExamples(path string, add func(string)) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		add(line)
		count++
	}
	return count, scanner.Err()
}

func init() {
	trainCmd.Flags().StringVarP(&trainConfigFile, "config", "c", "", "Configuration file path")
	trainCmd.Flags().StringVar(&trainSpamFile, "spam", "", "File of spam messages, one per line")
	trainCmd.Flags().StringVar(&trainHamFile, "ham", "", "File of ham messages, one per line")
}
