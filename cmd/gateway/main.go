package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc_retrieval/config"
	"doc_retrieval/gateway"
	"doc_retrieval/logging"
	"doc_retrieval/resource"
	"doc_retrieval/retrieval"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; environment variables override it)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("fail to load config", "error", err)
		os.Exit(1)
	}
	logging.Configure(cfg.LogLevel)

	manager := resource.NewManager(newEmbeddingFactory(cfg), newCollectionFactory(cfg))
	defer func() {
		if err := manager.Close(); err != nil {
			slog.Error("fail to release resources", "error", err)
		}
	}()
	slog.Info("resource manager created, handles load on first request",
		"embedding_backend", cfg.Embedding.Backend,
		"embedding_model", cfg.Embedding.Model,
		"store_backend", cfg.Store.Backend,
		"store_addr", cfg.StoreAddr(),
		"collection", cfg.Store.Collection,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Preload {
		// a failed preload is retried by the first request
		if err := manager.Preload(ctx); err != nil {
			slog.Warn("fail to preload resources", "error", err)
		}
	}

	if !logging.Enabled(slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := gateway.NewHandler(retrieval.NewService(manager), manager, cfg.Query.DefaultTopK, cfg.Query.MaxTopK)
	router := gateway.NewRouter(handler)
	if cfg.Server.Debug {
		slog.Info("debug mode on")
		gateway.RegisterDebug(router)
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("fail to shut down http server", "error", err)
		}
	}()

	slog.Info("starting server", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error running http server", "error", err)
	}
}
