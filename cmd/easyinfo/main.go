package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"easyinfo/internal/config"
	"easyinfo/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "easyinfo",
	Short: "Inspect values saved by easyinfo.Save",
	Long: `easyinfo works with the files written by the easyinfo debugging helpers.

It can describe saved values, convert them between formats, list the entries of a
.db store, show which name a call site resolves to and watch a save directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if verbose {
			lc := cfg.Logging
			lc.DebugMode = true
			lc.Level = "debug"
			logging.InitializeWith(logger, lc)
		} else if err := logging.Initialize(cfg.Logging); err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("path", path))
		logging.CLI("running %s", cmd.CommandPath())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .easyinfo.yaml in the working directory)")

	showCmd.Flags().StringVarP(&showKey, "key", "k", "", "Entry to show from a .db store (default: all)")
	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Render a summary table")
	showCmd.Flags().IntVar(&showMaxDepth, "max-depth", 0, "Shape depth limit (default from config)")

	convertCmd.Flags().StringVarP(&convertKey, "key", "k", "", "Entry name for .db source or destination")
	convertCmd.Flags().BoolVar(&convertUnsorted, "unsorted", false, "Keep map entries in key order in .txt output")

	resolveCmd.Flags().IntVar(&resolveArg, "arg", 0, "Argument index to resolve")
	resolveCmd.Flags().BoolVar(&resolveAssign, "assign", false, "Resolve the variable receiving the call's result")

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", defaultDebounce, "Quiet period before a changed file is shown")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(showCmd, convertCmd, keysCmd, resolveCmd, watchCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
