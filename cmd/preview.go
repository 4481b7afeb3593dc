package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/harding/internal/preview"
)

func newPreviewCmd() *cobra.Command {
	var (
		extract int
		output  string
		minSize int
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "List or extract the embedded JPEG previews of a RAW file",
		Long: `Scans a camera RAW container for embedded JPEG previews and lists them,
largest first. Pass --extract with a candidate index to write that preview out.`,
		Example: `  # List candidates
  harding preview IMG_0001.CR2

  # Write the largest preview next to the RAW file
  harding preview IMG_0001.CR2 --extract 0

  # Write the second candidate to a chosen path
  harding preview IMG_0001.CR2 --extract 1 -o thumb.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			candidates := preview.Scanner{MinSize: minSize}.Scan(data)
			if len(candidates) == 0 {
				return fmt.Errorf("no embedded preview found in %s", path)
			}

			out := cmd.OutOrStdout()
			name := filepath.Base(path)
			if extract < 0 {
				fmt.Fprintf(out, "%d candidate(s) in %s\n", len(candidates), name)
				for i, c := range candidates {
					fmt.Fprintf(out, "  [%d] %s  %s", i, c.ID(name), c.Label())
					if cam := cameraLabel(c.Camera); cam != "" {
						fmt.Fprintf(out, "  %s", cam)
					}
					fmt.Fprintln(out)
				}
				return nil
			}

			if extract >= len(candidates) {
				return fmt.Errorf("candidate %d out of range, %s has %d", extract, name, len(candidates))
			}
			if output == "" {
				output = strings.TrimSuffix(path, filepath.Ext(path)) + fmt.Sprintf("-preview-%d.jpg", extract)
			}
			c := candidates[extract]
			if err := os.WriteFile(output, c.Payload, 0644); err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}
			fmt.Fprintf(out, "Wrote %s (%s)\n", output, c.Label())
			return nil
		},
	}

	cmd.Flags().IntVar(&extract, "extract", -1, "Candidate index to extract")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path for --extract")
	cmd.Flags().IntVar(&minSize, "min-size", preview.DefaultMinSize, "Smallest JPEG span in bytes to consider")

	return cmd
}

func cameraLabel(c preview.Camera) string {
	label := strings.TrimSpace(c.Make + " " + c.Model)
	if c.Orientation > 1 {
		label += fmt.Sprintf(" (orientation %d)", c.Orientation)
	}
	return strings.TrimSpace(label)
}
