package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/formrec/internal/config"
	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/server"
	"github.com/alfredjeanlab/formrec/internal/store"
	"github.com/alfredjeanlab/formrec/internal/store/memory"
	"github.com/alfredjeanlab/formrec/internal/store/postgres"
	formsync "github.com/alfredjeanlab/formrec/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the development record store",
	GroupID: "system",
	Long: `Serve the record store REST API on FORMREC_HTTP_ADDR.

Records live in memory unless FORMREC_DATABASE_URL points at PostgreSQL.
Point the CLI at it with FORMREC_HOST=http://localhost:8080.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		validate, _ := cmd.Flags().GetBool("validate")
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		return runServer(cmd.Context(), cfg, validate, logger)
	},
}

func runServer(ctx context.Context, cfg *config.Config, validate bool, logger *slog.Logger) error {
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		st = pg
		logger.Info("using postgres store")
	} else {
		st = memory.New()
		logger.Info("using in-memory store (FORMREC_DATABASE_URL not set)")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Info("events disabled (FORMREC_NATS_URL not set)")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}()

	recordServer := server.NewRecordServer(st, publisher)
	if validate {
		for _, schema := range serverSchemas(cfg) {
			table := schemaTable(schema.Name)
			recordServer.SetSchema(table, schema)
			logger.Info("schema enforced", "table", table, "fields", len(schema.Fields))
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           recordServer.NewHTTPHandler(cfg.AuthToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if scheduler := newSyncScheduler(ctx, cfg, formsync.FromStore(st), logger); scheduler != nil {
		scheduler.Start(ctx)
		logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		defer func() {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "auth", cfg.AuthToken != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	err := g.Wait()
	logger.Info("shutdown complete")
	return err
}

// serverSchemas returns the built-in schemas overlaid by any declared in the
// config file under the same name.
func serverSchemas(cfg *config.Config) []model.Schema {
	var out []model.Schema
	seen := make(map[string]bool)
	for _, name := range []string{model.ObjectSchema.Name, model.PersonSchema.Name, model.ArtisanSchema.Name} {
		if s, ok := cfg.Schema(name); ok {
			out = append(out, s)
			seen[name] = true
		}
	}
	for _, s := range cfg.Schemas {
		if !seen[s.Name] {
			out = append(out, s)
			seen[s.Name] = true
		}
	}
	return out
}

// schemaTable maps a schema name to the table it guards: "people" -> "People".
func schemaTable(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// newSyncScheduler returns a scheduler for the configured destinations, or
// nil when sync is disabled or no destination could be built.
func newSyncScheduler(ctx context.Context, cfg *config.Config, src formsync.Source, logger *slog.Logger) *formsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	dests := syncDestinations(ctx, cfg, logger)
	if len(dests) == 0 {
		return nil
	}
	return formsync.NewScheduler(src, dests, cfg.SyncInterval, logger)
}

// syncDestinations builds the S3 and git destinations named in cfg. A
// destination that fails to initialize is logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []formsync.Destination {
	var dests []formsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := formsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, formsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	return dests
}

func init() {
	serveCmd.Flags().Bool("validate", false, "reject creates that fail the schema for their table (Objects, People, Artisans)")
}
