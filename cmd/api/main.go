package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josinaldojr/book-rag/internal/config"
	apphttp "github.com/josinaldojr/book-rag/internal/http"
	"github.com/josinaldojr/book-rag/internal/llm"
	"github.com/josinaldojr/book-rag/internal/logger"
	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/josinaldojr/book-rag/internal/vectorstore"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal("failed to init Gemini client", zap.Error(err))
	}

	chatModel, err := llm.ResolveChatModel(ctx, geminiClient, cfg.ChatModel, log)
	if err != nil {
		log.Fatal("failed to resolve chat model", zap.Error(err))
	}

	store, closeStore, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open vector store", zap.String("backend", cfg.VectorBackend), zap.Error(err))
	}
	defer closeStore()
	if store == nil {
		log.Warn("vector store not configured, retrieval disabled", zap.String("backend", cfg.VectorBackend))
	}

	ragService := rag.NewService(
		store,
		llm.NewCachedEmbedder(geminiClient, cfg.EmbedCacheTTL),
		geminiClient,
		rag.Settings{
			ChatModel:       chatModel,
			RetrievalLimit:  cfg.RetrievalLimit,
			MaxContextChars: cfg.MaxContextChars,
			EmbeddingDim:    cfg.EmbeddingDim,
			AnswerLang:      cfg.AnswerLang,
		},
		log,
	)

	h := apphttp.NewHandler(ragService, cfg.RequestTimeout, log)
	router := apphttp.NewRouter(h, cfg.AllowedOrigins, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API listening", zap.String("addr", srv.Addr), zap.String("model", chatModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
