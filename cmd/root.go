package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/hashsharing/config"
	"github.com/s0up4200/hashsharing/hashapi"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	// Command flags
	environment string
	outputFmt   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hashsharing",
	Short: "A client for the hash sharing fingerprint exchange",
	Long: `hashsharing talks to the hash sharing XML API. It can check which member
the configured credentials belong to and pull fingerprint updates for a time
window, following the server's paging cursor until the window is exhausted.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", "", "environment to use, overrides hashsharing.environment")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "output format: table, json or yaml")

	// Add subcommands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(environmentsCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if cmd.Flags().Changed("environment") {
		cfg.HashSharing.Environment = environment
		cfg.HashSharing.BaseURL = ""
	}
	if cmd.Flags().Changed("output") {
		cfg.Fetch.Output = outputFmt
	}

	return nil
}

// skipInit replaces initializeApp for commands that need no configuration
func skipInit(cmd *cobra.Command, args []string) error {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).Level(zerolog.WarnLevel)
	return nil
}

// newClient creates a client from the loaded configuration
func newClient() (*hashapi.Client, error) {
	baseURL, err := cfg.HashSharing.ResolveBaseURL()
	if err != nil {
		return nil, err
	}

	client, err := hashapi.NewClient(
		baseURL,
		cfg.HashSharing.Username,
		cfg.HashSharing.Password,
		logger,
		clientOptions()...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash sharing client: %w", err)
	}
	return client, nil
}

func clientOptions() []hashapi.Option {
	return []hashapi.Option{
		hashapi.WithTimeout(cfg.HashSharing.Timeout),
		hashapi.WithMaxRetries(cfg.HashSharing.MaxRetries),
		hashapi.WithUserAgent("hashsharing/" + version),
	}
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Colour only when stderr is a terminal
	fd := os.Stderr.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
