package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strconv"
	"strings"
	"text/tabwriter"

	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/storage"

	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage registered devices",
	Long:  `Manage authentication terminals, including listing, registering and removing devices.`,
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		reg := registry.New(provider)
		devices, err := reg.List(ctx)
		if err != nil {
			slog.Error("Failed to list devices", "error", err)
			os.Exit(1)
		}

		if len(devices) == 0 {
			fmt.Println("No devices registered")
			return
		}

		// Print table
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SERIAL NO\tNAME\tAUTH MODE\tACTIVE\tLAST UPDATED")
		for _, device := range devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
				device.SerialNo,
				device.DeviceName,
				device.AuthMode,
				device.IsActive,
				device.LastUpdated.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
	},
}

// getActiveUser returns a string identifying who is performing the action
// Format: username@hostname
func getActiveUser() string {
	username := "unknown"
	if currentUser, err := user.Current(); err == nil {
		username = currentUser.Username
	}

	hostname := "unknown"
	// Check environment variable first for SSH sessions
	if h := os.Getenv("SSH_CLIENT"); h != "" {
		ssh_client := strings.Split(h, " ")
		if len(ssh_client) > 0 {
			hostname = ssh_client[0]
		}
	} else if h, err := os.Hostname(); err == nil {
		hostname = h
	}

	return fmt.Sprintf("%s@%s", username, hostname)
}

// parseAuthMode accepts either a mode name or its wire integer.
func parseAuthMode(arg string) (storage.AuthMode, error) {
	switch strings.ToLower(arg) {
	case "face":
		return storage.AuthModeFace, nil
	case "vein":
		return storage.AuthModeVein, nil
	case "dual", "faceandvein", "face+vein":
		return storage.AuthModeFaceAndVein, nil
	}
	if n, err := strconv.Atoi(arg); err == nil {
		mode := storage.AuthMode(n)
		if mode.Valid() {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("invalid auth mode %q", arg)
}

var deviceAddCmd = &cobra.Command{
	Use:   "add <serial_no> <name> <auth_mode>",
	Short: "Register a new device",
	Long:  `Register a device by serial number. Valid auth modes: face, vein, dual (or the numeric codes 0, 1, 2).`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		mode, err := parseAuthMode(args[2])
		if err != nil {
			slog.Error("Invalid auth mode", "auth_mode", args[2])
			fmt.Println("Valid auth modes: face, vein, dual")
			os.Exit(1)
		}

		reg := registry.New(provider)
		device, err := reg.Create(ctx, storage.Device{
			SerialNo:   args[0],
			DeviceName: args[1],
			AuthMode:   mode,
			IsActive:   true,
		}, getActiveUser())
		if err != nil {
			slog.Error("Failed to register device", "serial_no", args[0], "error", err)
			os.Exit(1)
		}

		fmt.Printf("Device %s (%s) registered with mode %s\n", device.SerialNo, device.DeviceName, device.AuthMode)
	},
}

var deviceSetModeCmd = &cobra.Command{
	Use:   "set-mode <serial_no> <auth_mode>",
	Short: "Change the authentication mode of a device",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		serialNo := args[0]

		mode, err := parseAuthMode(args[1])
		if err != nil {
			slog.Error("Invalid auth mode", "auth_mode", args[1])
			fmt.Println("Valid auth modes: face, vein, dual")
			os.Exit(1)
		}

		reg := registry.New(provider)
		device, err := reg.Update(ctx, serialNo, registry.Patch{AuthMode: &mode}, getActiveUser())
		if err != nil {
			slog.Error("Failed to update device", "serial_no", serialNo, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Device %s now requires %s\n", device.SerialNo, device.AuthMode)
	},
}

var deviceRemoveCmd = &cobra.Command{
	Use:   "remove <serial_no>",
	Short: "Remove a device from the registry",
	Long:  `Remove a device. Its audit trail is retained.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		serialNo := args[0]

		reg := registry.New(provider)
		if err := reg.Delete(ctx, serialNo, getActiveUser()); err != nil {
			slog.Error("Failed to remove device", "serial_no", serialNo, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Device %s removed by %s\n", serialNo, getActiveUser())
	},
}

var deviceLogsCmd = &cobra.Command{
	Use:   "logs <serial_no>",
	Short: "Show the audit trail of a device",
	Long:  `Show change history for a serial number, newest first. Works for deleted devices too.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		serialNo := args[0]

		reg := registry.New(provider)
		logs, err := reg.Logs(ctx, serialNo)
		if err != nil {
			slog.Error("Failed to fetch device logs", "serial_no", serialNo, "error", err)
			os.Exit(1)
		}

		if len(logs) == 0 {
			fmt.Printf("No log entries for %s\n", serialNo)
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
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceSetModeCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
	deviceCmd.AddCommand(deviceLogsCmd)
	rootCmd.AddCommand(deviceCmd)
}
