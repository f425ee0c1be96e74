package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tahoebot/tahoebot/internal/app"
)

var (
	ingestForce bool
	ingestFiles []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest documents into the knowledge base",
	Long: `Ingest extracts text from PDF, TXT, and Markdown files in the data
directory, chunks it, embeds every chunk, and stores the vectors in
PostgreSQL. Files whose source is already stored are skipped unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args)
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest files that are already stored")
	ingestCmd.Flags().StringSliceVar(&ingestFiles, "file", nil, "only ingest the named files (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	dir := cfg.DataDir
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	processed, skipped, err := a.Pipeline.IngestFolder(ctx, dir, ingestFiles, ingestForce)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("Processed (%d):\n", len(processed))
	for _, name := range processed {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("Skipped (%d):\n", len(skipped))
	for _, name := range skipped {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
