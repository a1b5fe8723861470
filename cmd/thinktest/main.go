package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doITmagic/thinktest-analyzer/internal/config"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultConfigFile = "thinktest.yaml"

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	cfgFile string
	verbose bool

	cfg       *config.Config
	logger    *logrus.Logger
	logCloser io.Closer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "thinktest",
		Short: "ThinkTest - WordPress plugin analysis for test generation",
		Long: `ThinkTest inspects WordPress plugin PHP source and reports the facts a
test generator needs: hooks, filters, AJAX handlers, REST routes, database
and security calls, Elementor widgets, and prioritized test recommendations.

Source the PHP parser rejects is still analyzed with pattern matching.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				_ = a.logCloser.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./"+defaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`ThinkTest {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newElementorCmd(a),
		newScanCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newInstallMCPCmd(a),
	)
	return rootCmd
}

// init loads configuration and builds the logger
func (a *app) init() error {
	path := a.cfgFile
	if path == "" {
		path = defaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, closer, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer

	logger.WithFields(logrus.Fields{
		"config":      path,
		"php_version": cfg.Analysis.PHPVersion,
	}).Debug("configuration loaded")
	return nil
}

func (a *app) analyzer() (*wordpress.Analyzer, error) {
	v, err := wordpress.ParseVersion(a.cfg.Analysis.PHPVersion)
	if err != nil {
		return nil, err
	}
	return wordpress.NewAnalyzer(wordpress.WithPHPVersion(v), wordpress.WithLogger(a.logger)), nil
}

func (a *app) scanner() (*workspace.Scanner, error) {
	return workspace.NewScannerFromConfig(a.cfg.Analysis, a.logger)
}
