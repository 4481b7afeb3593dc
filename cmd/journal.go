package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/harding/internal/journal"
)

func newJournalCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "journal <file.parquet>",
		Short: "Print the rows of a history journal",
		Example: `  harding journal history.parquet
  harding journal history.parquet --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := journal.ReadFile(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROJECT\tSTEP\tDESCRIPTION\tSIZE\tROTATION\tTIME\tCURRENT")
			for _, r := range rows {
				current := ""
				if r.Current {
					current = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%dx%d\t%d\t%s\t%s\n",
					r.ProjectName, r.StepIndex, r.Description, r.Width, r.Height, r.Rotation,
					time.UnixMilli(r.TimestampMs).Format(time.RFC3339), current)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")

	return cmd
}
