package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/config"
	"github.com/breeze-rmm/monitorcapture/internal/duplicator"
	"github.com/breeze-rmm/monitorcapture/internal/graphics"
)

var (
	version = "0.1.0"
	cfgFile string
	backend string
)

var rootCmd = &cobra.Command{
	Use:   "monitor-capture",
	Short: "Monitor capture source",
	Long:  `monitor-capture duplicates a display, optionally follows the foreground window, and serves the rotation-corrected result.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture a monitor until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		runCapture(cmd)
	},
}

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List the monitors available for capture",
	Run: func(cmd *cobra.Command, args []string) {
		listMonitors()
	},
}

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "Print the source settings schema as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		printProperties()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("monitor-capture v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is monitor-capture.yaml in "+config.Dir()+")")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "duplication backend: auto, dxgi or screenshot (overrides config)")

	addRunFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the config, exiting on fatal problems.
// Warnings are returned for logging once the logger is configured.
func loadConfig() (*config.Config, []error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if backend != "" {
		cfg.Backend = backend
	}

	result := cfg.ValidateTiered()
	if result.HasFatals() {
		for _, err := range result.Fatals {
			fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		}
		os.Exit(1)
	}
	return cfg, result.Warnings
}

func newFactory(cfg *config.Config) capture.DuplicatorFactory {
	b, err := duplicator.ParseBackend(cfg.Backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid backend: %v\n", err)
		os.Exit(1)
	}
	factory, err := duplicator.New(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s duplication backend: %v\n", b, err)
		os.Exit(1)
	}
	return factory
}

func listMonitors() {
	cfg, _ := loadConfig()
	factory := newFactory(cfg)

	n := 0
	for _, desc := range capture.Monitors(factory.MonitorInfo) {
		fmt.Println(desc)
		n++
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "No monitors found.")
		os.Exit(1)
	}
}

func printProperties() {
	cfg, _ := loadConfig()
	src, err := capture.New(capture.Defaults(), capture.Deps{
		Graphics:    graphics.NewDevice(),
		Duplicators: newFactory(cfg),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create source: %v\n", err)
		os.Exit(1)
	}
	defer src.Destroy()

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(src.Properties()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode properties: %v\n", err)
		os.Exit(1)
	}
	enc.Close()
}
