package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github/itish2003/docsearch/config"
	"github/itish2003/docsearch/controller"
	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/services"
	"github/itish2003/docsearch/tui"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func main() {
	tuiMode := flag.Bool("tui", false, "run the terminal chat instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// run owns every deferred cleanup; exit only after it returns.
	if err := run(cfg, *tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, tuiMode bool) error {
	var appLog *logger.ZapLogger
	if tuiMode {
		appLog = logger.NewFileOnlyLogger(cfg.LogFile)
	} else {
		appLog = logger.NewZapLogger(cfg.LogFile, cfg.IsProduction())
	}
	defer appLog.Sync()

	// Missing credentials are reported, never fatal: each flow refuses work on its own.
	if err := cfg.Validate(); err != nil {
		appLog.Warn("MAIN", "Configuration incomplete", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, closeIndex, err := newVectorIndex(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	defer closeIndex()

	var geminiClient *genai.Client
	if cfg.GoogleReady() == nil {
		geminiClient, err = services.NewGeminiClient(ctx, cfg.GoogleAPIKey)
		if err != nil {
			return fmt.Errorf("%w. Make sure GOOGLE_API_KEY is valid", err)
		}
		appLog.Info("MAIN", "Connected to Google Gemini", map[string]interface{}{"chat_model": cfg.ChatModel, "embedding_model": cfg.EmbeddingModel})
	}

	documents := services.NewDocumentService(services.DocumentDeps{
		Extractor:    services.NewPDFExtractor(cfg.UnidocLicenseKey, appLog),
		Embedder:     services.NewGeminiEmbedder(geminiClient, cfg.EmbeddingModel),
		Answerer:     services.NewGeminiAnswerer(geminiClient, cfg.ChatModel),
		Index:        index,
		Logger:       appLog,
		Ready:        cfg.GoogleReady,
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		TopK:         config.RetrievalTopK,
	})

	httpClient := &http.Client{Timeout: 30 * time.Second}
	search := services.NewWebSearchService(
		services.NewTavilyClient(httpClient, cfg.TavilyURL, cfg.TavilyAPIKey),
		cfg.TavilyReady,
		appLog,
	)

	if tuiMode {
		session := services.NewSession(config.MemoryWindow)
		defer func() {
			if err := index.Drop(context.Background(), session.ID); err != nil {
				appLog.Warn("MAIN", "Failed to drop session index", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
			}
		}()
		return tui.Run(ctx, session, documents, search, config.RenderDelay, cfg.WatchDir, appLog)
	}

	sessions := services.NewSessionStore(cfg.SessionTTL, config.MemoryWindow, index, appLog)
	chat := controller.NewChatController(sessions, documents, search, cfg.Validate, config.RenderDelay)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	controller.RegisterRoutes(router, chat)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("MAIN", "Server starting", map[string]interface{}{
			"addr":   "http://localhost:" + cfg.Port,
			"health": "http://localhost:" + cfg.Port + "/health",
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("failed to start server: %w", err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	appLog.Info("MAIN", "Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("MAIN", "Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// newVectorIndex picks Chroma when CHROMA_URL is set and the in-memory index otherwise.
func newVectorIndex(cfg *config.Config, appLog logger.ILogger) (services.VectorIndex, func(), error) {
	if cfg.ChromaURL == "" {
		appLog.Info("MAIN", "Using in-memory vector index", nil)
		return services.NewMemoryIndex(), func() {}, nil
	}

	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	appLog.Info("MAIN", "Using Chroma vector index", map[string]interface{}{"url": cfg.ChromaURL})

	closeFn := func() {
		if err := chromaClient.Close(); err != nil {
			appLog.Warn("MAIN", "Failed to close chroma client", map[string]interface{}{"error": err.Error()})
		}
	}
	return services.NewChromaIndex(chromaClient, appLog), closeFn, nil
}
