package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-qa-platform/internal/ai"
	"notes-qa-platform/internal/config"
	"notes-qa-platform/internal/logger"
	"notes-qa-platform/internal/telemetry"
	"notes-qa-platform/middleware"
	"notes-qa-platform/routes"
	"notes-qa-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("notes-qa-platform", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	ctx := context.Background()

	// The Mongo mirror and Redis cache are advisory: when either backend is
	// unreachable the core runs without it.
	var mirror services.Mirror
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Warn("MongoDB unavailable, metadata mirror and query analytics disabled", "error", err)
	} else {
		mirror = services.NewMongoMirror(mongoClient.Database(cfg.DBName))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
	}

	var rdb *redis.Client
	rdb, err = config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, embedding cache disabled", "error", err)
		rdb = nil
	}

	geminiEmbedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	defer geminiEmbedder.Close()

	var embedder ai.Embedder = geminiEmbedder
	if rdb != nil {
		embedder = ai.NewCachedEmbedder(geminiEmbedder, rdb, cfg.GoogleEmbeddingsModel)
	}

	generator, err := ai.NewGeminiGenerator(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create generator:", err)
	}
	defer generator.Close()

	store := services.NewSnapshotStore(cfg.DataDir, cfg.VectorDim)
	rag, err := services.NewRAGService(cfg, embedder, generator, store, mirror)
	if err != nil {
		log.Fatal("Failed to initialize RAG service:", err)
	}

	storage, err := services.NewFileStorage(cfg.FileStorageDir)
	if err != nil {
		log.Fatal("Failed to initialize file storage:", err)
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("notes-qa-platform"))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupNotesRoutes(router, cfg, rag, storage)
	routes.SetupChatRoutes(router, rag)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
