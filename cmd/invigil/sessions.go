package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List exam sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, _ := cmd.Flags().GetStringSlice("status")
		sessions, err := apiClient.ListSessions(cmd.Context(), statuses...)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOURSE\tTITLE\tVENUE\tSTATUS\tSTARTS")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.CourseCode, s.Title, s.Venue, s.Status, s.StartsAt.Format("Jan 2 15:04"))
		}
		return w.Flush()
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List exam batches and their attendance progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		batches, err := apiClient.ListBatches(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSESSIONS\tMARKED")
		for _, b := range batches {
			progress, err := apiClient.BatchProgress(cmd.Context(), b.ID)
			if err != nil {
				return err
			}
			total := progress.Scheduled + progress.Active + progress.Closed
			fmt.Fprintf(w, "%s\t%s\t%d (%d active)\t%d/%d\n",
				b.ID, b.Name, total, progress.Active, progress.MarkedTotal, progress.Registered)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().StringSlice("status", nil, "filter by status (scheduled, active, closed)")
}
