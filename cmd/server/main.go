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

	_ "github.com/just-nibble/srs-tracker/docs"
	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/artifact"
	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/handlers"
	"github.com/just-nibble/srs-tracker/internal/http/middleware"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/internal/routes"
	"github.com/just-nibble/srs-tracker/internal/runlog"
	"github.com/just-nibble/srs-tracker/internal/usecases"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/github"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "srs-tracker",
	Short: "Requirements traceability service",
	Long:  `srs-tracker stores SRS documents and source code per repository, runs the analysis scripts on them and reports requirement coverage.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, err := repository.InitDB(cfg.Storage)
		if err != nil {
			return err
		}
		if err := repository.Migrate(db); err != nil {
			return err
		}
		fmt.Println("database is up to date")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:    "token <user-id> [email]",
	Short:  "Print a bearer token for local testing",
	Hidden: true,
	Args:   cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")

		user := domain.User{ID: args[0]}
		if len(args) == 2 {
			user.Email = args[1]
		}
		token, err := middleware.Sign([]byte(cfg.Auth.JWTSecret), user, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logger := log.New(cfg.Log)

	// Initialize the database
	db, err := repository.InitDB(cfg.Storage)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	journal, err := runlog.Open(cfg.Analysis.RunLogPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	repoStore := repository.NewGormRepositoryStore(db)
	files := artifact.NewStore(cfg.Uploads)
	runner := analysis.NewScriptRunner(analysis.NewInvoker(cfg.Analysis, journal, logger), cfg.Analysis)

	var verifier github.RepositoryVerifier
	if cfg.GitHub.Verify {
		verifier = github.NewGitHubClient(cfg.GitHub, nil)
	}

	uploads := usecases.NewUploadUsecase(repoStore, files, runner, verifier, logger)
	comparisons := usecases.NewComparisonUsecase(repoStore, files, runner, logger)

	router := routes.NewRouter(routes.Handlers{
		Repository: handlers.NewRepositoryHandler(usecases.NewRepositoryUsecase(repoStore, files, journal, logger)),
		Access:     handlers.NewAccessHandler(usecases.NewAccessUsecase(repoStore, logger)),
		Upload:     handlers.NewUploadHandler(uploads, cfg.Uploads.MaxBytes),
		Comparison: handlers.NewComparisonHandler(comparisons),
	}, []byte(cfg.Auth.JWTSecret), logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("could not start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}

	// analyses outlive their requests; record them before closing the journal
	uploads.Wait()
	comparisons.Wait()
	return nil
}
