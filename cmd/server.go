package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	. "biometric-device-console/internal"
	"biometric-device-console/internal/config"
	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/routes"
	"biometric-device-console/internal/session"
	"biometric-device-console/internal/storage"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the device management console server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		fmt.Println("Starting device management console...")
		ServerMain(ctx, provider)
	},
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	// Determine level from config and set it on the handler options.
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

// seedDevice is one entry in the optional device seed file.
type seedDevice struct {
	SerialNo   string           `yaml:"serialNo"`
	DeviceName string           `yaml:"deviceName"`
	AuthMode   storage.AuthMode `yaml:"authMode"`
	IsActive   *bool            `yaml:"isActive"`
}

// seedDevices registers devices listed in the seed file. Already
// registered serials are left untouched.
func seedDevices(ctx context.Context, reg *registry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []seedDevice
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for _, entry := range entries {
		active := true
		if entry.IsActive != nil {
			active = *entry.IsActive
		}
		device := storage.Device{
			SerialNo:   entry.SerialNo,
			DeviceName: entry.DeviceName,
			AuthMode:   entry.AuthMode,
			IsActive:   active,
		}
		if _, err := reg.Create(ctx, device, "seed"); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				slog.Debug("Seed device already registered", "serial_no", entry.SerialNo)
				continue
			}
			return fmt.Errorf("seeding device %s: %w", entry.SerialNo, err)
		}
		slog.Info("Seeded device", "serial_no", entry.SerialNo, "device_name", entry.DeviceName)
	}
	return nil
}

func ServerMain(ctx context.Context, storageProvider storage.Provider) {

	if config.Cfg == nil {
		panic("Config not initialized.")
	}

	initLogger(config.Cfg)

	// Use the provider passed from cobra command (already initialized)
	if storageProvider == nil {
		slog.Error("Storage provider is nil")
		os.Exit(1)
	}

	reg := registry.New(storageProvider)
	dir := directory.New(storageProvider)
	sessions := session.NewManager(config.Cfg.Secret, time.Duration(config.Cfg.SessionTTL)*time.Minute)
	defer sessions.Close()

	// Bootstrap the admin account on an empty directory
	if err := dir.Seed(ctx, config.Cfg.BootstrapPassword); err != nil {
		slog.Error("Failed to seed admin directory", "error", err)
		os.Exit(1)
	}

	if config.Cfg.SeedFile != "" {
		if err := seedDevices(ctx, reg, config.Cfg.SeedFile); err != nil {
			slog.Error("Failed to seed devices", "error", err, "file", config.Cfg.SeedFile)
			os.Exit(1)
		}
	}

	// Initialize HTTP server
	server := HTTPServer()

	server.Use(routes.Inject(reg, dir, sessions, storageProvider))

	routes.RegisterRoutes(server)

	server.Run(config.Cfg.Listen)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
