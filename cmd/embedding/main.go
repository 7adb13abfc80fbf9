package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc_retrieval/config"
	embeddinggrpc "doc_retrieval/embedding/grpc"
	"doc_retrieval/embedding/openai"
	"doc_retrieval/logging"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// this process exists to hold the model, so it loads eagerly
	embeddingService, err := openai.New(ctx, openai.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		APIKeyEnv:  cfg.Embedding.APIKeyEnv,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})
	if err != nil {
		slog.Error("fail to create embedding service", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.EmbeddingServer.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.EmbeddingServer.Addr, "error", err)
		os.Exit(1)
	}

	s := grpc.NewServer()
	hs := embeddinggrpc.Register(s, embeddingService)
	go func() {
		<-ctx.Done()
		hs.Shutdown()
		s.GracefulStop()
	}()

	slog.Info("embedding gRPC server listening",
		"addr", cfg.EmbeddingServer.Addr,
		"model", cfg.Embedding.Model,
		"dimensions", embeddingService.Dimensions(),
	)
	if err := s.Serve(lis); err != nil {
		slog.Error("failed to serve", "error", err)
		os.Exit(1)
	}
}
