package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/itellico/joi-console/internal/cache"
	"github.com/itellico/joi-console/internal/config"
	"github.com/itellico/joi-console/internal/console"
	"github.com/itellico/joi-console/internal/gateway"
	"github.com/itellico/joi-console/internal/mutate"
	"github.com/itellico/joi-console/internal/reconcile"
	"github.com/itellico/joi-console/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation loop and the localhost console API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := log.New(os.Stderr, "[serve] ", log.LstdFlags)

	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	})
	if err != nil {
		return err
	}

	st := store.New()

	var saver reconcile.Saver
	snapCache, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Printf("snapshot cache unavailable: %v", err)
	} else {
		saver = snapCache
		// Render the last known generation while the first fetch runs.
		preloadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if snap, err := snapCache.Load(preloadCtx); err == nil {
			st.Replace(snap)
			logger.Printf("preloaded cached snapshot (%d tasks, fetched %s)", len(snap.Tasks), snap.FetchedAt.Format(time.RFC3339))
		} else if !errors.Is(err, cache.ErrEmpty) {
			logger.Printf("snapshot cache preload failed: %v", err)
		}
		cancel()
	}

	loop := reconcile.New(reconcile.Config{
		Store:        st,
		Fetcher:      gw,
		Saver:        saver,
		Interval:     cfg.Reconcile.Interval,
		LogbookLimit: cfg.Reconcile.LogbookLimit,
	})

	engine := mutate.New(mutate.Config{
		Store:         st,
		Remote:        gw,
		Refresher:     loop,
		CompleteDelay: cfg.Reconcile.CompleteDelay,
		RefetchDelays: cfg.Reconcile.RefetchDelays,
	})

	srv, err := console.NewServer(console.ServerConfig{
		Addr:    cfg.Server.Addr,
		Console: console.New(st, engine),
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{Addr: srv.Addr(), Handler: srv.Handler()}

	errCh := make(chan error, 2)
	go func() {
		errCh <- loop.Run()
	}()
	go func() {
		logger.Printf("listening on http://%s", srv.Addr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		loop.Stop()
		return err
	case <-sig:
	}

	logger.Printf("shutting down")
	loop.Stop()
	engine.Flush()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
