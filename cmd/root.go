package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/internal/logging"
	"github.com/killallgit/eafkit/pkg/config"
)

// appConfig is loaded by the root pre-run hook for every command but version
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the full command tree. Each call returns a fresh tree so
// tests never share flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eafkit",
		Short: "ELAN annotation document toolkit",
		Long: `eafkit - read, edit and write ELAN (.eaf) annotation documents

Features:
  • Inspect tiers, linguistic types and controlled vocabularies
  • Export the flat row view as CSV, TSV or JSON lines
  • Create documents, rename tiers and edit vocabularies losslessly
  • Import WebVTT/SRT/JSON transcripts as annotations
  • Cut annotated spans out of the source media with ffmpeg
  • Index many documents in sqlite and search them from the CLI or HTTP`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// Add persistent flags for logging configuration
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")

	root.AddCommand(
		newVersionCmd(),
		newInfoCmd(),
		newRowsCmd(),
		newCreateCmd(),
		newRenameTierCmd(),
		newVocabCmd(),
		newCutCmd(),
		newImportCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)
	return root
}

// setup configures logging and, except for version, loads the configuration.
// Flags win over the logging section of the config.
func setup(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	if cmd.Name() == "version" {
		logging.Init(level, jsonLogs)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") && cfg.Logging.Level != "" {
		level = cfg.Logging.Level
	}
	if !cmd.Flags().Changed("json-logs") {
		jsonLogs = jsonLogs || cfg.Logging.Format == "json"
	}
	logging.Init(level, jsonLogs)

	appConfig = cfg
	logrus.WithField("command", cmd.CommandPath()).Debug("configuration loaded")
	return nil
}

// loadConfig initializes viper and returns the validated configuration
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
