package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/api"
	"github.com/GonzoDMX/docquery/internal/config"
	"github.com/GonzoDMX/docquery/internal/embedding"
	"github.com/GonzoDMX/docquery/internal/history"
	"github.com/GonzoDMX/docquery/internal/index"
	"github.com/GonzoDMX/docquery/internal/lifecycle"
	"github.com/GonzoDMX/docquery/internal/query"
	"github.com/GonzoDMX/docquery/internal/registry"
	"github.com/GonzoDMX/docquery/internal/storage"
)

const version = "0.1.0"

func main() {
	var (
		cfgPath string
		addr    string
	)

	root := &cobra.Command{
		Use:     "docquery",
		Short:   "Document question-answering service with a persistent retrieval index",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, addr)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to YAML config file")
	root.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "docquery", "config.yaml")
}

func run(cfgPath, addrOverride string) error {
	// Local dev convenience: OPENAI_API_KEY from .env if present.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	store, err := storage.NewManager(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// The lifecycle assumes a single writer per data directory. Refuse
	// to start if another process already owns it.
	lock := storage.NewDirLock(store.RootDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking data directory: %w", err)
	}
	if !acquired {
		return fmt.Errorf("data directory %s is in use by another process", store.RootDir)
	}
	defer lock.Unlock()

	reg := registry.Load(store.RegistryPath(), logger)
	hist := history.Load(store.HistoryPath(), logger)

	idx, err := openIndex(cfg, store, logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	mgr := lifecycle.NewManager(reg, store.RegistryPath(), idx,
		lifecycle.WithLogger(logger),
		lifecycle.WithChunking(cfg.Chunking.MaxTokens, cfg.Chunking.Overlap),
	)

	gen, err := query.NewOpenAIGenerator(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("initializing generator: %w", err)
	}
	engine := query.NewEngine(mgr, idx, gen, logger,
		cfg.LLM.TopK,
		time.Duration(cfg.LLM.TimeoutSecs)*time.Second,
	)

	handlers := api.NewHandlers(mgr, engine, hist, store.HistoryPath(), logger, version, cfg.Index.Backend)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.Middleware(handlers.Router()),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("data_dir", store.RootDir),
			zap.String("index_backend", cfg.Index.Backend),
			zap.Int("documents", reg.Len()),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// openIndex builds the configured index backend. The chromem backend is
// the persistent vector index and needs an embedding provider; the
// memory backend is lexical and self-contained.
func openIndex(cfg *config.Config, store *storage.Manager, logger *zap.Logger) (index.Store, error) {
	switch cfg.Index.Backend {
	case "chromem":
		embedder, err := embedding.NewService(embedding.Config{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			APIKey:  cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing embedder: %w", err)
		}
		idx, err := index.NewChromemStore(store.IndexDir(), embedder.ChromemFunc(), logger)
		if err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
		return idx, nil
	case "memory":
		idx, err := index.LoadMemoryStore(filepath.Join(store.IndexDir(), "index.json"))
		if err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
