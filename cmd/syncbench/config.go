package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jamesainslie/syncbench/pkg/syncbench/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage syncbench configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/syncbench/config.yaml (if set)
  2. ~/.config/syncbench/config.yaml

Environment variables can override config file settings using the SYNCBENCH_ prefix:
  SYNCBENCH_RSYNC_DESTINATION=rsync_backup@172.17.0.3::backup
  SYNCBENCH_RSYNC_PORT=874
  SYNCBENCH_THROTTLE_ENABLED=true`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, file, environment and flags.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configEntries flattens the settings shown by config show.
func configEntries(cfg *config.Config) [][2]string {
	return [][2]string{
		{"rsync.binary", cfg.Rsync.Binary},
		{"rsync.destination", cfg.Rsync.Destination},
		{"rsync.password_file", cfg.Rsync.PasswordFile},
		{"rsync.port", fmt.Sprint(cfg.Rsync.Port)},
		{"rsync.flags", strings.Join(cfg.Rsync.Flags, " ")},
		{"rsync.stats", fmt.Sprint(cfg.Rsync.Stats)},
		{"throttle.enabled", fmt.Sprint(cfg.Throttle.Enabled)},
		{"throttle.binary", cfg.Throttle.Binary},
		{"throttle.upload", fmt.Sprintf("%d KB/s", cfg.Throttle.Upload)},
		{"throttle.download", fmt.Sprintf("%d KB/s", cfg.Throttle.Download)},
		{"backup.type", fmt.Sprint(cfg.Backup.Type)},
		{"backup.version_num", fmt.Sprint(cfg.Backup.VersionNum)},
		{"backup.version", orNow(cfg.Backup.Version)},
		{"backup.version_step", cfg.Backup.VersionStep.String()},
		{"generate.root", cfg.Generate.Root},
		{"generate.count", fmt.Sprint(cfg.Generate.Count)},
		{"generate.ladder", fmt.Sprintf("%d x%d, %d steps, style %s", cfg.Generate.Start, cfg.Generate.Factor, cfg.Generate.Steps, cfg.Generate.Style)},
		{"generate.categories", strings.Join(cfg.Generate.Categories, ",")},
		{"bench.results_dir", cfg.Bench.ResultsDir},
		{"bench.rounds", fmt.Sprint(cfg.Bench.Rounds)},
		{"bench.grow_percent", fmt.Sprintf("%g%%", cfg.Bench.GrowPercent)},
		{"traffic.interval", cfg.Traffic.Interval.String()},
		{"traffic.log_dir", cfg.Traffic.LogDir},
		{"traffic.plot_dir", cfg.Traffic.PlotDir},
		{"monitor.interval", cfg.Monitor.Interval.String()},
		{"monitor.output", cfg.Monitor.Output},
		{"history.enabled", fmt.Sprint(cfg.History.Enabled)},
		{"history.path", cfg.History.Path},
		{"history.retention", fmt.Sprintf("%d days", cfg.History.RetentionDays)},
		{"logging.level", cfg.Logging.Level},
	}
}

func orNow(v string) string {
	if v == "" {
		return "(now)"
	}
	return v
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	for _, e := range configEntries(cfg) {
		fmt.Printf("%-22s %s\n", e[0]+":", e[1])
	}

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Println(kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'syncbench config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
