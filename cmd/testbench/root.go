// Root command for the testbench CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/testbench/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagStateFile string
	flagDataDir   string
	flagJSON      bool
)

// Values loaded from config.yaml by PersistentPreRunE so all
// subcommands can use them.
var (
	configStateFile      string
	configDataDir        string
	configDatabase       string
	configDatabasePrefix string
	configTemplateDir    string
	configProjectRoot    string
)

var rootCmd = &cobra.Command{
	Use:          "testbench",
	Short:        "Testbench coordinates browser-driven test sessions",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configStateFile = cfg.GetString(cfgKeyStateFile)
		configDataDir = cfg.GetString(cfgKeyDataDir)
		configDatabase = cfg.GetString(cfgKeyDatabase)
		configDatabasePrefix = cfg.GetString(cfgKeyDatabasePrefix)
		configTemplateDir = cfg.GetString(cfgKeyTemplateDir)
		configProjectRoot = cfg.GetString(cfgKeyProjectRoot)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.testbench)")
	rootCmd.PersistentFlags().StringVar(&flagStateFile, "state-file", "", "session state file (default: state.json in the config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "database directory (default: $(CWD)/.testbench-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(serveCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > TESTBENCH_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveStateFile returns the state file path following the
// precedence: --state-file flag > config.yaml state_file >
// TESTBENCH_STATE_FILE env > state.json in the config directory.
func resolveStateFile() (string, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return "", err
	}
	return paths.ResolveStateFile(flagStateFile, configStateFile, configDir)
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > TESTBENCH_DATA_DIR env >
// default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}
