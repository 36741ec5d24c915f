package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"biometric-device-console/internal/authlog"

	"github.com/spf13/cobra"
)

var authlogsCmd = &cobra.Command{
	Use:   "authlogs",
	Short: "Manage authentication logs",
	Long:  `Inspect, import and export authentication attempts reported by the terminals.`,
}

var authlogsListCmd = &cobra.Command{
	Use:   "list [date]",
	Short: "List authentication attempts",
	Long:  `List authentication attempts, newest first. An optional date argument (YYYY-MM-DD) limits output to a single day.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		day := ""
		if len(args) > 0 {
			day = args[0]
		}

		logs, err := provider.ListAuthLogs(ctx, day)
		if err != nil {
			slog.Error("Failed to list auth logs", "error", err)
			os.Exit(1)
		}

		if len(logs) == 0 {
			fmt.Println("No authentication logs found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER ID\tUSER\tSERIAL NO\tMODE\tRESULT")
		for _, entry := range logs {
			result := "Success"
			if !entry.IsSuccess {
				result = "Failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.UserID,
				entry.UserName,
				entry.SerialNo,
				entry.AuthMode,
				result,
			)
		}
		w.Flush()
		fmt.Printf("\nTotal entries: %d\n", len(logs))
	},
}

var authlogsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import authentication logs from a CSV file",
	Long:  `Import logs exported by a terminal or another console instance. UTF-8 and UTF-16 files are accepted, rows that fail to parse are skipped with a warning.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		imp := authlog.NewImporter(provider)
		count, err := imp.ImportFile(ctx, args[0])
		if err != nil {
			slog.Error("Import failed", "file", args[0], "error", err)
			os.Exit(1)
		}

		fmt.Printf("Imported %d log entries from %s\n", count, args[0])
	},
}

var authlogsExportCmd = &cobra.Command{
	Use:   "export <file.csv> [date]",
	Short: "Export authentication logs to a CSV file",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		day := ""
		if len(args) > 1 {
			day = args[1]
		}

		logs, err := provider.ListAuthLogs(ctx, day)
		if err != nil {
			slog.Error("Failed to list auth logs", "error", err)
			os.Exit(1)
		}

		f, err := os.Create(args[0])
		if err != nil {
			slog.Error("Failed to create export file", "file", args[0], "error", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := authlog.WriteCSV(f, logs); err != nil {
			slog.Error("Export failed", "file", args[0], "error", err)
			os.Exit(1)
		}

		fmt.Printf("Exported %d log entries to %s\n", len(logs), args[0])
	},
}

func init() {
	authlogsCmd.AddCommand(authlogsListCmd)
	authlogsCmd.AddCommand(authlogsImportCmd)
	authlogsCmd.AddCommand(authlogsExportCmd)
	rootCmd.AddCommand(authlogsCmd)
}
