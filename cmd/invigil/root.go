package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/cliconfig"
)

var (
	cfg       cliconfig.Config
	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "invigil",
	Short: "Exam invigilation client",
	Long: "invigil is the terminal client for the invigild exam service:\n" +
		"report incidents, mark attendance, and watch the live activity feed.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(studentsCmd)
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = cliconfig.Load()
	if err != nil {
		return err
	}
	if cfg.Server.Token == "" {
		return fmt.Errorf("no API token configured; set INVIGIL_SERVER_TOKEN or server.token in the config file")
	}
	apiClient = client.New(cfg.Server.URL, cfg.Server.Token)
	return nil
}
