package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"archivePortal/cmd/app"
	"archivePortal/internal/config"
	"archivePortal/internal/database"
	"archivePortal/internal/service"
	"archivePortal/internal/telemetry"
)

var (
	verbose bool

	exportFormat string
	exportFields string
	exportOut    string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Community archive submission and moderation server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema to Postgres",
	RunE:  runMigrate,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write approved submissions to a JSON or CSV file",
	Example: `  api export --format csv --fields title,tags --out archive.csv
  api export --fields title,description,metadata`,
	RunE: runExport,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	exportCmd.Flags().StringVar(&exportFormat, "format", string(service.FormatJSON), "Output format: json or csv")
	exportCmd.Flags().StringVar(&exportFields, "fields", "title,description,category,date,location,tags",
		"Comma separated fields to include")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return errors.Join(err, shutdownTracing(context.Background()))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           app.NewRouter(a.Handlers, a.Services.Auth, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started",
			zap.String("addr", server.Addr),
			zap.Bool("in_memory", cfg.DB.InMemory))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return errors.Join(
			server.Shutdown(shutdownCtx),
			a.Close(shutdownCtx),
			shutdownTracing(shutdownCtx),
		)
	})

	return g.Wait()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.DB.InMemory {
		return errors.New("migrate needs Postgres; unset DB_IN_MEMORY")
	}

	db, err := database.ConnectDB(cmd.Context(), cfg.DB, logger)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	return db.RunMigrations(cmd.Context(), cfg.DB.MigrationsPath)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	n, err := a.Services.Export.Export(ctx, out, service.ExportFormat(exportFormat), service.ParseFields(exportFields))
	if err != nil {
		return err
	}

	logger.Info("export written",
		zap.Int("items", n),
		zap.String("format", exportFormat),
		zap.String("out", exportOut))
	return nil
}
