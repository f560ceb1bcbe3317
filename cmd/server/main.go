/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the payroll engine: the HTTP server plus two
  offline commands that work on JSON files without a database.

COMMANDS:
  serve               Start the HTTP server (SQLite store, optional scheduler)
  compute             Compute one payroll from a resolved inputs JSON file
  validate-brackets   Check a JSON array of brackets for overlaps

FLAGS:
  --config   Optional YAML config file (all commands)
  --input    JSON input file (compute, validate-brackets)

CONFIGURATION:
  See config/config.go. Environment variables use the PAYROLL_ prefix, e.g.
  PAYROLL_PAYROLL_STANDARD_MONTHLY_HOURS=176 PAYROLL_SERVER_PORT=3000.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server serve --config ./payroll.yaml
  ./server compute --input ./inputs.json
  ./server validate-brackets --input ./brackets.json

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payrun"
	"github.com/warp/payroll-engine/store/sqlite"
)

var (
	cfgPath   string
	inputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Payroll computation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServer,
	}

	computeCmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a payroll from a resolved inputs JSON file",
		RunE:  runCompute,
	}
	computeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the inputs JSON file")
	computeCmd.MarkFlagRequired("input")

	bracketsCmd := &cobra.Command{
		Use:   "validate-brackets",
		Short: "Validate a JSON array of brackets",
		RunE:  runValidateBrackets,
	}
	bracketsCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the brackets JSON file")
	bracketsCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(serveCmd, computeCmd, bracketsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := payroll.NewEngine(engineCfg)
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, engine, cfg.Payroll.Workers)

	scheduler := payrun.NewScheduler(handler.Payrun, store, logger)
	scheduler.Enabled = cfg.Schedule.Enabled
	scheduler.CheckInterval = cfg.Schedule.Interval
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, logger, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("db", cfg.Database.Path).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			scheduler.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
	}

	scheduler.Stop()
	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// runCompute accepts zero standard hours; the engine only rejects that when
// the inputs carry overtime.
func runCompute(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := payroll.NewEngine(engineCfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	in, err := factory.NewRuleFactory().ParseInputs(string(data))
	if err != nil {
		return err
	}
	result, err := engine.Compute(in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runValidateBrackets(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	set, err := factory.NewRuleFactory().ParseBrackets(string(data))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "valid: %d brackets\n", set.Len())
	for _, b := range set.Brackets() {
		fmt.Fprintf(out, "  %s\n", b.DisplayLabel())
	}
	return nil
}
