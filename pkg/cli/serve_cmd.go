package cli

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

	"sqlscope/internal/api"
	"sqlscope/internal/catalog"
	"sqlscope/internal/db/repository"
	"sqlscope/internal/engine"
	"sqlscope/internal/middleware"
	"sqlscope/internal/query"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the query API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(ctx, a)
			if err != nil {
				return err
			}
			defer srv.Close() //nolint:errcheck
			return srv.Run(ctx)
		},
	}
}

// server owns every long-lived resource of the serve command.
type server struct {
	app     *app
	http    *http.Server
	catalog *catalog.Cached
	duck    *engine.DuckDB
	meta    *metastore
}

func newServer(ctx context.Context, a *app) (*server, error) {
	cfg := a.cfg
	ms, err := openMetastore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &server{app: a, meta: ms}

	if cfg.CatalogFile != "" {
		tables, err := catalog.ParseFile(cfg.CatalogFile, cfg.DefaultTenantColumn)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		if err := catalog.NewSQLiteRepo(ms.write).ReplaceAll(ctx, tables); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("import catalog file: %w", err)
		}
		a.logger.Info("catalog file imported", "file", cfg.CatalogFile, "tables", len(tables))
	}

	s.duck, err = engine.Open(cfg.DuckDBPath, cfg.QueryTimeout)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.catalog = catalog.NewCached(catalog.NewSQLiteRepo(ms.read), a.logger)
	if err := s.catalog.Start(ctx, cfg.CatalogRefresh); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start catalog refresher: %w", err)
	}

	svc := query.NewService(newTranspiler(a), s.catalog, s.duck, a.logger)
	s.http = &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewRouter(api.RouterConfig{
			Handler:   api.NewHandler(svc, a.logger),
			JWTSecret: []byte(cfg.JWTSecret),
			APIKeys:   repository.NewAPIKeyRepo(ms.read),
			RateLimit: middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				Burst:             cfg.RateLimitBurst,
			},
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         a.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.app.logger.Info("HTTP API listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.app.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.catalog.Stop()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the database handles.
func (s *server) Close() error {
	var errs []error
	if s.duck != nil {
		errs = append(errs, s.duck.Close())
	}
	if s.meta != nil {
		errs = append(errs, s.meta.Close())
	}
	return errors.Join(errs...)
}
