package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"HedgeRatio/internal/hedge"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently recorded calculations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			rec := openRecorder(root.cfg.Database.SQLitePath)
			defer rec.Close()

			runs, err := rec.RecentRuns(limit)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No calculations recorded yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RECORDED\tSOURCE\tPAIR\tWINDOW\tN\tRHO\tH\tRESULT")
			for _, r := range runs {
				result := "ok"
				if r.Error != "" {
					result = r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%s..%s\t%d\t%.3f\t%.3f\t%s\n",
					r.RecordedAt.Format("2006-01-02 15:04"), r.Source,
					r.SpotSymbol, r.FuturesSymbol,
					r.Start.Format(hedge.DateLayout), r.End.Format(hedge.DateLayout),
					r.Observations, r.Correlation, r.HedgeRatio, result)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
