package cmd

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/gemini-code-gateway/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the gateway configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Initialize configuration by prompting for gateway details.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration, defaults included.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the current configuration for errors.`,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	color.Blue("Gemini Code Gateway Configuration Setup")
	color.Yellow("Press enter to keep the default for any prompt.")

	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("\nListen host [%s]: ", config.DefaultHost)
	host, _ := reader.ReadString('\n')
	host = strings.TrimSpace(host)

	fmt.Printf("Listen port [%d]: ", config.DefaultPort)
	portStr, _ := reader.ReadString('\n')
	portStr = strings.TrimSpace(portStr)

	port := 0
	if portStr != "" {
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return fmt.Errorf("invalid port %q", portStr)
		}
	}

	fmt.Printf("Upstream base URL [%s]: ", config.DefaultUpstream)
	upstream, _ := reader.ReadString('\n')
	upstream = strings.TrimSpace(upstream)

	cfg := &config.Config{
		Host:     host,
		Port:     port,
		Upstream: upstream,
	}

	if err := cfgMgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Configuration saved successfully to: %s", cfgMgr.GetPath())
	color.Cyan("You can now start the gateway with: gcg start")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := cfgMgr.Get()

	color.Blue("Current Configuration:")
	fmt.Printf("  %-15s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-15s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-15s: %s\n", "Upstream", cfg.Upstream)
	fmt.Printf("  %-15s: %s\n", "Config Path", cfgMgr.GetPath())

	fmt.Println("\nModel Mappings:")

	shorthands := make([]string, 0, len(cfg.Models))
	for shorthand := range cfg.Models {
		shorthands = append(shorthands, shorthand)
	}
	sort.Strings(shorthands)

	for _, shorthand := range shorthands {
		fmt.Printf("  %-25s -> %s\n", shorthand, cfg.Models[shorthand])
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var problems []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", cfg.Port))
	}

	if u, err := url.Parse(cfg.Upstream); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("upstream %q is not an absolute URL", cfg.Upstream))
	}

	for shorthand, canonical := range cfg.Models {
		if strings.TrimSpace(shorthand) == "" || strings.TrimSpace(canonical) == "" {
			problems = append(problems, "model mapping with empty shorthand or canonical name")
		}
	}

	if len(problems) > 0 {
		color.Red("Configuration validation failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration validation failed")
	}

	color.Green("Configuration is valid!")
	return nil
}
