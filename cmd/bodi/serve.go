package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/metrics"
	"github.com/comigor/bodi-go/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the listing and chat HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch-seed")
		return runServe(cmd.Context(), watch)
	},
}

func init() {
	serveCmd.Flags().Bool("watch-seed", false, "reload catalog.seed_file into the store whenever it changes")
}

// openCatalog opens the sqlite store and seeds it when it is empty.
func openCatalog(ctx context.Context) (*catalog.Store, error) {
	store, err := catalog.OpenStore(cfg.Catalog.DBPath)
	if err != nil {
		return nil, err
	}
	n, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if n == 0 && cfg.Catalog.SeedFile != "" {
		entries, err := catalog.SeedFile(cfg.Catalog.SeedFile).Load(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := store.Upsert(ctx, entries); err != nil {
			store.Close()
			return nil, err
		}
		logger.L.Info("seeded catalog", "file", cfg.Catalog.SeedFile, "listings", len(entries))
	}
	return store, nil
}

func runServe(ctx context.Context, watchSeed bool) error {
	store, err := openCatalog(ctx)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	provider := catalog.NewProvider(store)
	provider.Subscribe(func(s *catalog.Snapshot) { m.SetCatalogEntries(s.Len()) })

	var responder llm.Responder
	if cfg.LLM.Configured() {
		responder = llm.NewAssistant(llm.NewClient(cfg.LLM), cfg.LLM, provider)
	} else {
		logger.L.Warn("llm api key not configured; chat answers with a fixed reply")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: server.New(server.Deps{
			Catalog:   provider,
			Responder: responder,
			Metrics:   m,
			Gatherer:  reg,
			ChatRPS:   cfg.Server.ChatRPS,
			ChatBurst: cfg.Server.ChatBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := provider.Refresh(gctx)
		if err != nil {
			return err
		}
		logger.L.Info("catalog loaded", "listings", snap.Len())
		return nil
	})
	if watchSeed && cfg.Catalog.SeedFile != "" {
		g.Go(func() error {
			return catalog.WatchSeed(gctx, cfg.Catalog.SeedFile, func(ctx context.Context, entries []catalog.Entry) error {
				if err := store.Replace(ctx, entries); err != nil {
					return err
				}
				_, err := provider.Refresh(ctx)
				return err
			})
		})
	}
	g.Go(func() error {
		logger.L.Info("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
