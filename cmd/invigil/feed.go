package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		follow, _ := cmd.Flags().GetBool("follow")
		sessionID, _ := cmd.Flags().GetString("session")

		entries, err := apiClient.RecentActivity(cmd.Context(), sessionID, limit)
		if err != nil {
			return err
		}
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			fmt.Printf("%s  %-18s %s\n", e.CreatedAt.Format("15:04:05"), e.Kind, e.Summary)
		}

		if !follow {
			return nil
		}

		events, err := apiClient.Subscribe(cmd.Context())
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		for ev := range events {
			fresh, err := apiClient.RecentActivity(cmd.Context(), sessionID, 1)
			if err != nil || len(fresh) == 0 {
				fmt.Printf("-- %s %s changed\n", ev.Resource, ev.ID)
				continue
			}
			e := fresh[0]
			fmt.Printf("%s  %-18s %s\n", e.CreatedAt.Format("15:04:05"), e.Kind, e.Summary)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over incident reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := apiClient.SearchIncidents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, s := range summaries {
			badge := ""
			if s.Confidential {
				badge = " [confidential]"
			}
			fmt.Printf("%s  %-16s %-22s %s%s\n",
				s.CreatedAt.Format("Jan 2 15:04"), s.Category, s.Subject, s.Status, badge)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().Int("limit", 20, "number of entries")
	feedCmd.Flags().Bool("follow", false, "stream new activity as it happens")
	feedCmd.Flags().String("session", "", "scope to one session")
}
