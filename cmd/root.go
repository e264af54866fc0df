package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"apiplay/internal/config"
	"apiplay/internal/controller"
	"apiplay/internal/format"
	httpclient "apiplay/internal/http"
	"apiplay/internal/logging"
	"apiplay/internal/mock"
)

var (
	configFlag   string
	verboseFlag  bool
	noColorFlag  bool
	logLevelFlag string
	mockFlag     bool

	cfg     = config.DefaultConfig()
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "apiplay",
	Short: "An API playground for sending cancellable, timeout-bound requests",
	Long: `apiplay composes HTTP requests, sends them with an optional timeout and lets
you cancel them while they are in flight.

A built-in mock user API answers any URL whose path contains /api/ when --mock
is set, so the playground works without a backend.

Examples:
  apiplay get http://localhost/api/users --mock
  apiplay post http://localhost/api/users --mock -d '{"firstName":"Ada","lastName":"Lovelace"}'
  apiplay get http://localhost/api/slow --mock -t 2
  apiplay tui --mock
  apiplay mock serve --addr :3000`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				format.PrintError(exit.err.Error())
			}
			os.Exit(exit.code)
		}
		format.PrintError(err.Error())
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: $APIPLAY_CONFIG, ./.apiplay.yaml, ~/.apiplay/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log request lifecycle at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Answer /api/ requests from the built-in mock API")
}

// loadConfig reads the config file and layers the persistent flags on top
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, path, err := config.Load(configFlag)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	flags := cmd.Flags()
	if flags.Changed("no-color") {
		c.NoColor = noColorFlag
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevelFlag
	} else if verboseFlag {
		c.Log.Level = "debug"
	}
	if flags.Changed("mock") {
		c.Mock.Enabled = mockFlag
	}
	if err := c.Validate(); err != nil {
		return withExit(ExitConfigError, err)
	}

	if c.NoColor {
		color.NoColor = true
	}
	cfg, cfgPath = c, path
	return nil
}

// newLogger returns a logger writing to the configured log file, or to
// fallback when none is configured. The returned func closes the file.
func newLogger(fallback io.Writer) (logging.Logger, func(), error) {
	w, closeFn := fallback, func() {}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closeFn = f, func() { _ = f.Close() }
	}

	logger, err := logging.New(w, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

// newController builds the controller, routing through the in-process mock
// API when it is enabled. The returned func releases the mock store.
func newController(logger logging.Logger, headers map[string]string) (*controller.Controller, func(), error) {
	opts := []httpclient.ClientOption{httpclient.WithLogger(logger)}
	cleanup := func() {}

	if cfg.Mock.Enabled {
		handler, store, err := newMockHandler(logger)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, httpclient.WithTransport(mock.NewTransport(handler, nil)))
		cleanup = func() { _ = store.Close() }
		logger.Debug("mock transport enabled", logging.F("store", cfg.Mock.Store))
	}

	ctrl := controller.New(httpclient.NewClient(opts...),
		controller.WithGraceDelay(cfg.GraceDelay),
		controller.WithLogger(logger),
		controller.WithHeaders(headers),
	)
	return ctrl, cleanup, nil
}

// newMockHandler builds the mock API from the mock section of the config
func newMockHandler(logger logging.Logger) (*mock.Handler, mock.Store, error) {
	seed, err := mock.LoadSeed(cfg.Mock.SeedFile)
	if err != nil {
		return nil, nil, withExit(ExitConfigError, err)
	}
	store, err := mock.NewStore(cfg.Mock.Store, seed)
	if err != nil {
		return nil, nil, withExit(ExitConfigError, err)
	}

	handler := mock.NewHandler(store,
		mock.WithDelayScale(cfg.Mock.DelayScale),
		mock.WithLogger(logger),
	)
	return handler, store, nil
}
