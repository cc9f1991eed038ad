package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/arbormap/arbor/internal/server"
	"github.com/arbormap/arbor/pkg/cache"
	"github.com/arbormap/arbor/pkg/config"
	"github.com/arbormap/arbor/pkg/store"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the family tree HTTP API",
		Long: `Run the family tree HTTP API.

The server keeps one live tree in memory and exposes it under /api for
interactive editing: person, marriage, and parent-child CRUD, undo/redo,
automatic layout, and diagram export.

On startup the last autosaved tree is restored when the file backend is
configured with autosave enabled. Configuration is read from a TOML file;
all settings have working defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")

	return cmd
}

// runServe wires storage, cache, and the HTTP server from configuration
// and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, configPath, listen string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen != "" {
		cfg.Listen = listen
	}

	st := store.New(store.WithLogger(c.Logger))

	opts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithLayoutDefaults(cfg.Layout),
	}

	switch cfg.Storage.Backend {
	case config.StorageMongo:
		ms, err := store.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer func() {
			if err := ms.Close(context.Background()); err != nil {
				c.Logger.Warn("mongo close failed", "err", err)
			}
		}()
		opts = append(opts, server.WithPersister(ms))
	default:
		fs, err := store.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("open data dir: %w", err)
		}
		opts = append(opts, server.WithPersister(server.NewFilePersister(fs)))
		if cfg.Storage.Autosave {
			opts = append(opts, server.WithAutosave(fs))
			if t, err := fs.LoadLive(); err != nil {
				c.Logger.Warn("autosave restore failed", "err", err)
			} else if t != nil {
				st.Replace(t, "restore_autosave")
				c.Logger.Info("restored autosaved tree", "persons", len(t.Persons))
			}
		}
	}

	artifactCache, err := c.newServerCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer artifactCache.Close()
	opts = append(opts, server.WithCache(artifactCache))

	srv := server.New(st, opts...)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServerCache builds the cache backend named by cfg.
func (c *CLI) newServerCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	case config.CacheNone:
		return cache.NewNullCache(), nil
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}
