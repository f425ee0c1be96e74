package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tahoebot/tahoebot/internal/app"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), args)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved sources after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	result, err := a.Retriever.Retrieve(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := a.Generator.Answer(ctx, question, nil, result.Context)
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(answer)

	if askSources {
		fmt.Printf("\nDocument sources (%d):\n", len(result.DocSources))
		for _, src := range result.DocSources {
			fmt.Printf("  %s\n", firstLine(src))
		}
		fmt.Printf("Web sources (%d):\n", len(result.WebSources))
		for _, src := range result.WebSources {
			fmt.Printf("  %s\n", firstLine(src))
		}
	}
	return nil
}

// firstLine keeps source listings to one line each.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
