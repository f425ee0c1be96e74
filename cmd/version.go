package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tahoebot/tahoebot/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("tahoebot %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	cfg, _, err := loadConfig()
	if err != nil {
		// Version still prints without a valid configuration.
		fmt.Printf("\nConfiguration unavailable: %v\n", err)
		return nil
	}

	fmt.Println("\nConfiguration:")
	fmt.Printf("  Generation model: %s\n", cfg.GenerationModel)
	fmt.Printf("  Embedder model: %s (dim %d)\n", cfg.EmbedderModel, cfg.EmbeddingDim)
	fmt.Printf("  Chunking: %d/%d\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Printf("  Top K: %d documents, %d web\n", cfg.TopK, cfg.WebTopK)
	fmt.Printf("  Data directory: %s\n", cfg.DataDir)
	if config.HasAPIKey() {
		fmt.Println("  API key: configured")
	} else {
		fmt.Println("  API key: not set (export GEMINI_API_KEY=your-api-key)")
	}
	return nil
}
