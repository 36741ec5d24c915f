package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/storage"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage console administrator accounts",
	Long:  `List, create and remove administrator accounts. Local commands act with full privileges.`,
}

// localCaller identifies the shell operator. CLI commands bypass the
// HTTP session layer but still go through the role gates.
func localCaller() directory.Caller {
	return directory.Caller{
		Username: getActiveUser(),
		Role:     storage.RoleSuperAdmin,
	}
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrator accounts",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dir := directory.New(provider)
		users, err := dir.List(ctx, localCaller())
		if err != nil {
			slog.Error("Failed to list users", "error", err)
			os.Exit(1)
		}

		if len(users) == 0 {
			fmt.Println("No administrator accounts found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED AT")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				u.ID,
				u.Username,
				u.Role,
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
		fmt.Printf("\nTotal users: %d\n", len(users))
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create <username> <role>",
	Short: "Create an administrator account",
	Long:  `Create an administrator account. Valid roles: admin, super_admin. The password is read from the --password flag.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		role := storage.Role(args[1])
		if !role.Valid() {
			slog.Error("Invalid role", "role", args[1])
			fmt.Println("Valid roles: admin, super_admin")
			os.Exit(1)
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Println("A password is required, use --password")
			os.Exit(1)
		}

		dir := directory.New(provider)
		created, err := dir.Create(ctx, localCaller(), args[0], role, password)
		if err != nil {
			slog.Error("Failed to create user", "username", args[0], "error", err)
			os.Exit(1)
		}

		fmt.Printf("User %s created with role %s (id %d)\n", created.Username, created.Role, created.ID)
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an administrator account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			slog.Error("Invalid user id", "id", args[0])
			os.Exit(1)
		}

		dir := directory.New(provider)
		if err := dir.Delete(ctx, localCaller(), id); err != nil {
			slog.Error("Failed to delete user", "id", id, "error", err)
			os.Exit(1)
		}

		fmt.Printf("User %d deleted\n", id)
	},
}

var seedUserCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the bootstrap admin account",
	Long:  `Create the bootstrap super_admin account if the directory is empty. Does nothing when accounts already exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = cfg.BootstrapPassword
		}

		dir := directory.New(provider)
		if err := dir.Seed(ctx, password); err != nil {
			slog.Error("Failed to seed directory", "error", err)
			os.Exit(1)
		}

		fmt.Println("Directory seeded")
	},
}

var userLogsCmd = &cobra.Command{
	Use:   "logs <username>",
	Short: "Show the change history of an account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dir := directory.New(provider)
		logs, err := dir.Logs(ctx, localCaller(), args[0])
		if err != nil {
			slog.Error("Failed to fetch user logs", "username", args[0], "error", err)
			os.Exit(1)
		}

		if len(logs) == 0 {
			fmt.Printf("No log entries for %s\n", args[0])
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCHANGE\tDETAILS\tBY")
		for _, entry := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.ChangeType,
				entry.ChangeDetails,
				entry.AdminUser,
			)
		}
		w.Flush()
	},
}

func init() {
	createUserCmd.Flags().StringP("password", "p", "", "password for the new account")
	seedUserCmd.Flags().StringP("password", "p", "", "bootstrap password (defaults to BOOTSTRAP_PASSWORD)")

	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(createUserCmd)
	usersCmd.AddCommand(deleteUserCmd)
	usersCmd.AddCommand(seedUserCmd)
	usersCmd.AddCommand(userLogsCmd)
	rootCmd.AddCommand(usersCmd)
}
