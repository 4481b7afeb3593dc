package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/harding/internal/config"
)

// rootOptions holds the persistent flags and the configuration loaded from them
type rootOptions struct {
	configPath string
	verbose    bool
	config     *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "harding",
		Short: "Non-destructive photo editing workspace with RAW preview extraction",
		Long: `Harding is a photo editing workspace for JPEG, PNG and camera RAW files.

RAW files are opened through their embedded JPEG previews. Every project keeps a
full undo history of filter, rotation and AI edits, and exports bake the
current state into new files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.config = cfg
			slog.Debug("Loaded config", "path", opts.configPath, "provider", cfg.Provider)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newDevelopCmd(opts))
	cmd.AddCommand(newJournalCmd())

	return cmd
}
