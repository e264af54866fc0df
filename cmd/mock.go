package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"apiplay/internal/logging"
	"apiplay/internal/mock"
)

var (
	mockAddrFlag  string
	mockScaleFlag float64
	mockStoreFlag string
	mockSeedFlag  string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Work with the built-in mock user API",
}

var mockServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mock API over HTTP",
	Long: `Serve the mock user API over HTTP.

Every route answers after its fixed delay, multiplied by --delay-scale. Any
path prefix before /api/ is ignored.

Examples:
  apiplay mock serve
  apiplay mock serve --addr :8080 --delay-scale 0.1
  apiplay mock serve --store sqlite --seed users.json`,
	Args: cobra.NoArgs,
	RunE: mockServe,
}

var mockRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the mock API routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := mock.NewHandler(mock.NewMemoryStore(nil))
		printRoutes(cmd, h.Routes())
		return nil
	},
}

func init() {
	mockServeCmd.Flags().StringVar(&mockAddrFlag, "addr", "", "Listen address (default from config, :3000)")
	mockServeCmd.Flags().Float64Var(&mockScaleFlag, "delay-scale", 1, "Multiply every route delay (0 disables delays)")
	mockServeCmd.Flags().StringVar(&mockStoreFlag, "store", "", "Store backend: memory or sqlite")
	mockServeCmd.Flags().StringVar(&mockSeedFlag, "seed", "", "JSON file with the initial users")

	mockCmd.AddCommand(mockServeCmd)
	mockCmd.AddCommand(mockRoutesCmd)
	rootCmd.AddCommand(mockCmd)
}

func mockServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Mock.Addr = mockAddrFlag
	}
	if flags.Changed("delay-scale") {
		cfg.Mock.DelayScale = mockScaleFlag
	}
	if flags.Changed("store") {
		cfg.Mock.Store = mockStoreFlag
	}
	if flags.Changed("seed") {
		cfg.Mock.SeedFile = mockSeedFlag
	}
	if err := cfg.Validate(); err != nil {
		return withExit(ExitUsageError, err)
	}

	logger, closeLog, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return withExit(ExitConfigError, err)
	}
	defer closeLog()

	handler, store, err := newMockHandler(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return withExit(ExitNetworkError, fmt.Errorf("mock server: %w", err))
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down mock server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forced shutdown with requests still in flight", logging.F("error", err.Error()))
		}
		return nil
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Mock API listening on %s (%d routes, %s store)\n",
		cfg.Mock.Addr, len(handler.Routes()), cfg.Mock.Store)
	logger.Info("mock server started", logging.F("addr", cfg.Mock.Addr), logging.F("delay_scale", cfg.Mock.DelayScale))

	return g.Wait()
}

func printRoutes(cmd *cobra.Command, routes []mock.Route) {
	out := cmd.OutOrStdout()
	for _, r := range routes {
		fmt.Fprintf(out, "%-7s %-20s %7s  %s\n", r.Method, r.Pattern, r.Delay, r.Behavior)
	}
}
