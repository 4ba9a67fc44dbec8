package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/syncbench/pkg/syncbench/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errReported marks an error whose message was already printed.
var errReported = errors.New("error already reported")

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "syncbench",
		Short: "Generate test data and benchmark an rsync-based backup system",
		Long: `Syncbench generates files of controlled size and content, pushes and pulls
them through rsync (optionally throttled with trickle) and records timing,
CPU, memory and network metrics to CSV files, text logs and PNG plots.

The backup system behind rsync is treated as a black box: its custom flags
(--backup_type, --backup_version_num, --backup_version, --recovery_version)
are passed through verbatim.

Examples:
  syncbench gen fixed --root ./data          # Build the 1k..16384k ladder
  syncbench bench full --dest user@host::backup/data
  syncbench bench delta --rounds 3           # Grow 10% and push, 3 times
  syncbench traffic "rsync -av"              # Log a running transfer's bandwidth
  syncbench monitor                          # Sample CPU/mem/net until 'e'
  syncbench history                          # View recorded runs`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/syncbench/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "report format (pretty, plain, json, yaml, csv, markdown)")
	rootCmd.PersistentFlags().Bool("no-history", false, "do not record this run in the history store")
	rootCmd.PersistentFlags().String("dest", "", "rsync destination, e.g. rsync_backup@172.17.0.3::backup")
	rootCmd.PersistentFlags().String("password-file", "", "rsync --password-file")
	rootCmd.PersistentFlags().Int("port", config.DefaultRsyncPort, "rsync daemon port")
	rootCmd.PersistentFlags().Bool("throttle", false, "wrap rsync in trickle")
	rootCmd.PersistentFlags().Int("upload", 0, "trickle upload limit in KB/s")
	rootCmd.PersistentFlags().Int("download", 0, "trickle download limit in KB/s")
	rootCmd.PersistentFlags().String("root", "", "local test data root")
	rootCmd.PersistentFlags().String("results", "", "directory for transfer CSVs")

	// Bind flags to viper
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
	_ = viper.BindPFlag("rsync.destination", rootCmd.PersistentFlags().Lookup("dest"))
	_ = viper.BindPFlag("rsync.password_file", rootCmd.PersistentFlags().Lookup("password-file"))
	_ = viper.BindPFlag("rsync.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("throttle.enabled", rootCmd.PersistentFlags().Lookup("throttle"))
	_ = viper.BindPFlag("throttle.upload", rootCmd.PersistentFlags().Lookup("upload"))
	_ = viper.BindPFlag("throttle.download", rootCmd.PersistentFlags().Lookup("download"))
	_ = viper.BindPFlag("generate.root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("bench.results_dir", rootCmd.PersistentFlags().Lookup("results"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	if err := config.Configure(v); err != nil {
		printError("%v", err)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	if err := config.ReadInConfig(v); err != nil {
		printError("%v", err)
	}
}

// loadConfig decodes the global viper instance, flags included.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		printError("%v", err)
	}
	return err
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
