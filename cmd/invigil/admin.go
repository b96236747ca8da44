package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage operator accounts (admin only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := apiClient.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.Active)
		}
		return w.Flush()
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <name> <email> <role>",
	Short: "Create an account and print its one-time token",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := apiClient.CreateUser(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", creds.User.Email, creds.User.ID)
		fmt.Printf("token (shown once): %s\n", creds.Token)
		return nil
	},
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Revoke an account's access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeactivateUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deactivated")
		return nil
	},
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage the student directory (coordinator only)",
}

var studentsRegisterCmd = &cobra.Command{
	Use:   "register <index-number> <full-name>",
	Short: "Add a student to the directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, _ := cmd.Flags().GetString("program")
		level, _ := cmd.Flags().GetString("level")
		st, err := apiClient.RegisterStudent(cmd.Context(), args[0], args[1], program, level)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (%s)\n", st.IndexNumber, st.ID)
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersDeactivateCmd)

	studentsRegisterCmd.Flags().String("program", "", "program of study")
	studentsRegisterCmd.Flags().String("level", "", "level, e.g. 300")
	studentsCmd.AddCommand(studentsRegisterCmd)
}
