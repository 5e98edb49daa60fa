package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/Davincible/gemini-code-gateway/internal/config"
)

const (
	AppName = "gemini-code-gateway"
	Version = "0.1.0"
)

var (
	logger  *slog.Logger
	homeDir string
	baseDir string
	cfgMgr  *config.Manager
)

func init() {
	// A .env next to the binary is the easiest way to point a dev instance
	// at a staging upstream; missing files are fine.
	_ = godotenv.Load()

	logger = newLogger(slog.LevelInfo)

	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		logger.Error("Failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	cfgMgr = config.NewManager(baseDir)
}

func newLogger(level slog.Level) *slog.Logger {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	return slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:     "gcg",
	Short:   "Gemini Code Gateway - envelope-translating proxy",
	Long:    `A loopback gateway that accepts plain Gemini-style generation requests and speaks the upstream provider's envelope protocol on the caller's behalf.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(configCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger = newLogger(level)
}

func ensureConfigExists() error {
	if !cfgMgr.Exists() {
		color.Yellow("No configuration found, using built-in defaults. Run 'gcg config init' to customize.")
	}
	return nil
}
