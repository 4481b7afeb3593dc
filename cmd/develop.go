package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/harding/internal/config"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/images"
	"github.com/lehigh-university-libraries/harding/internal/importer"
	"github.com/lehigh-university-libraries/harding/internal/journal"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

type developOptions struct {
	preset      string
	rotate      int
	set         []string
	sync        bool
	auto        string
	candidate   int
	journalPath string
	flags       config.Config
}

func newDevelopCmd(opts *rootOptions) *cobra.Command {
	d := &developOptions{}

	cmd := &cobra.Command{
		Use:   "develop <file|url>...",
		Short: "Apply edits to a batch of images and export them",
		Long: `Imports every file or URL as a project, applies the requested edits and
exports the baked results with a YAML manifest.

RAW files with several embedded previews use the candidate chosen with
--candidate (0 is the largest).`,
		Example: `  # Apply a preset to a folder of JPEGs
  harding develop photos/*.jpg --preset "Vintage" --out developed

  # Adjust the first image and copy its filters to the rest
  harding develop a.CR2 b.CR2 --set brightness=110 --set contrast=105 --sync

  # Rotate, auto-enhance, and keep a history journal
  harding develop scan.png --rotate 90 --auto levels --journal history.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Merge(opts.config, &d.flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			st, imp, err := newWorkspace(cfg)
			if err != nil {
				return err
			}
			fetcher := images.NewFetcher(cfg.MaxUploadBytes)

			var ids []string
			for _, arg := range args {
				s, err := d.importArg(cmd, imp, fetcher, arg)
				if err != nil {
					return err
				}
				ids = append(ids, s.ID)
			}

			for _, id := range ids {
				if err := d.edit(cmd, st, id); err != nil {
					return err
				}
			}

			if d.sync && len(ids) > 1 {
				outcomes, err := st.Registry.SyncActiveToAll()
				if err != nil {
					return err
				}
				slog.Info("Synced filters", "projects", len(outcomes), "failed", registry.Failed(outcomes))
			}

			m, err := st.ExportTo(cmd.Context(), cfg.ExportDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range m.Items {
				if item.Error != "" {
					fmt.Fprintf(out, "FAILED %s: %s\n", item.Name, item.Error)
					continue
				}
				fmt.Fprintf(out, "%s  %dx%d  %s\n", filepath.Join(cfg.ExportDir, item.File), item.Width, item.Height, item.Head)
			}
			fmt.Fprintf(out, "Exported %d, failed %d. Manifest: %s\n", m.Exported, m.Failed, filepath.Join(cfg.ExportDir, studio.ManifestName))

			if d.journalPath != "" {
				if err := journal.WriteFile(d.journalPath, journal.Rows(st.Registry.List())); err != nil {
					return err
				}
				fmt.Fprintf(out, "Journal: %s\n", d.journalPath)
			}
			if m.Failed > 0 {
				return fmt.Errorf("%d of %d exports failed", m.Failed, len(m.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&d.preset, "preset", "", "Preset to apply to every image")
	cmd.Flags().IntVar(&d.rotate, "rotate", 0, "Rotation in degrees clockwise")
	cmd.Flags().StringArrayVar(&d.set, "set", nil, "Filter assignment field=value, repeatable")
	cmd.Flags().BoolVar(&d.sync, "sync", false, "Copy the first image's filters to every image before export")
	cmd.Flags().StringVar(&d.auto, "auto", "", "Auto-enhance mode (levels, color, or all)")
	cmd.Flags().IntVar(&d.candidate, "candidate", 0, "RAW preview candidate to use when a file has several")
	cmd.Flags().StringVar(&d.journalPath, "journal", "", "Write the edit history to this parquet file")
	cmd.Flags().StringVarP(&d.flags.ExportDir, "out", "o", "", "Export directory (default from config, exports)")
	cmd.Flags().StringVar(&d.flags.ExportPrefix, "prefix", "", "Export file name prefix (default from config, harding-)")
	cmd.Flags().StringVar(&d.flags.Provider, "provider", "", "AI provider for --auto (gemini, openai, or ollama)")

	return cmd
}

func (d *developOptions) importArg(cmd *cobra.Command, imp *importer.Importer, fetcher *images.Fetcher, arg string) (registry.Snapshot, error) {
	var (
		data     []byte
		mimeType string
		name     = filepath.Base(arg)
	)
	if images.IsURL(arg) {
		dl, err := fetcher.Fetch(cmd.Context(), arg)
		if err != nil {
			return registry.Snapshot{}, err
		}
		data, mimeType, name = dl.Data, dl.MimeType, dl.Filename
	} else {
		var err error
		data, err = os.ReadFile(arg)
		if err != nil {
			return registry.Snapshot{}, fmt.Errorf("failed to read %s: %w", arg, err)
		}
	}

	res, err := imp.Import(data, mimeType, name, registry.ImportOptions{})
	if err != nil {
		return registry.Snapshot{}, err
	}
	if res.Project != nil {
		return *res.Project, nil
	}
	slog.Info("Selecting RAW preview", "filename", name, "candidates", len(res.Pending.Candidates), "candidate", d.candidate)
	return imp.Select(res.Pending.ID, d.candidate, registry.ImportOptions{})
}

func (d *developOptions) edit(cmd *cobra.Command, st *studio.Studio, id string) error {
	if d.auto != "" {
		mode, err := studio.ParseMode(d.auto)
		if err != nil {
			return err
		}
		if _, _, err := st.AutoEnhance(cmd.Context(), id, mode); err != nil {
			return err
		}
	}
	if d.preset != "" {
		if _, _, err := st.ApplyPreset(id, d.preset); err != nil {
			return err
		}
	}
	if len(d.set) > 0 {
		snap, err := st.Registry.Get(id)
		if err != nil {
			return err
		}
		f, err := filters.ParseAssignments(snap.Current.Filters, d.set)
		if err != nil {
			return err
		}
		if _, _, err := st.Registry.Apply(id, "Adjust Filters", history.WithFilters(f)); err != nil {
			return err
		}
	}
	if d.rotate != 0 {
		if _, _, err := st.Registry.Apply(id, fmt.Sprintf("Rotate %d°", d.rotate), history.WithRotation(d.rotate)); err != nil {
			return err
		}
	}
	return nil
}
