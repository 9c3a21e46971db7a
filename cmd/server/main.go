// Package main runs the video annotation HTTP server with WebSocket state
// notifications and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drivestudy/annotator/config"
	"github.com/drivestudy/annotator/internal/assets"
	"github.com/drivestudy/annotator/internal/middleware"
	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/internal/realtime"
	"github.com/drivestudy/annotator/internal/recorder"
	"github.com/drivestudy/annotator/internal/session"
	"github.com/drivestudy/annotator/internal/taxonomy"
	"github.com/drivestudy/annotator/internal/worker"
	"github.com/drivestudy/annotator/pkg/database"
	"github.com/drivestudy/annotator/pkg/queue"
	"github.com/drivestudy/annotator/pkg/redis"
	"github.com/drivestudy/annotator/pkg/response"
	"github.com/drivestudy/annotator/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Taxonomy: fetched once at startup; the encoder consumes it read-only.
	var defs []models.EventDefinition
	if cfg.Taxonomy.URL != "" {
		defs, err = taxonomy.Fetch(ctx, cfg.Taxonomy.URL)
	} else {
		defs, err = taxonomy.LoadFile(cfg.Taxonomy.Path)
	}
	if err != nil {
		logger.Fatal("taxonomy", zap.Error(err))
	}
	logger.Info("taxonomy loaded", zap.Int("events", len(defs)))

	// Streaming references: S3 presigned URLs when a bucket is configured,
	// otherwise the fixed base-URL convention over the local data dir.
	var resolver session.StreamResolver = storage.NewLocalResolver(cfg.Assets.VideoBaseURL)
	var s3Client *storage.S3
	if cfg.AWS.AssetsBucket != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AssetsBucket:         cfg.AWS.AssetsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			resolver = s3Client
		}
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	notifier := realtime.NewChannelNotifier(hub, realtime.DefaultChannel)

	// Annotation core: one session controller and one encoder, created at
	// startup and injected everywhere (no process-wide singleton).
	sessionCtrl := session.NewController(resolver, notifier, logger)
	sessionHandler := session.NewHandler(sessionCtrl)

	sink := recorder.NewSink(cfg.Sink.EventURL, time.Duration(cfg.Sink.TimeoutSec)*time.Second, logger)
	encoder := recorder.NewEncoder(defs, notifier, logger)
	recorderHandler := recorder.NewHandler(encoder, sink, sessionCtrl, logger)

	// Asset catalog
	assetRepo := assets.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	var uploader assets.Uploader
	if s3Client != nil {
		uploader = s3Client
	}
	assetHandler := assets.NewHandler(assetRepo, jobQueue, uploader, cfg.Assets.DataDir, logger)

	scanProcessor := worker.NewScanProcessor(assetRepo, assets.NewScanner(logger), jobQueue, redisPubSub, cfg.Assets.DataDir, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Local footage served by the fixed playback URL convention.
	router.Static("/data", cfg.Assets.DataDir)

	api := router.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) { response.OK(c, gin.H{"message": "pong"}) })

		storageGroup := api.Group("/storage")
		{
			storageGroup.GET("/definition", recorderHandler.GetDefinitions)
			storageGroup.GET("/video", assetHandler.List)
			storageGroup.POST("/video", assetHandler.Upload)
			storageGroup.PUT("/video", assetHandler.Rescan)
		}

		sessionGroup := api.Group("/session")
		{
			sessionGroup.GET("", sessionHandler.GetState)
			sessionGroup.PUT("/asset", sessionHandler.SelectAsset)
			sessionGroup.PUT("/base-time", sessionHandler.SetBaseTime)
			sessionGroup.POST("/load", sessionHandler.Load)
			sessionGroup.POST("/release", sessionHandler.Release)
			sessionGroup.PUT("/offset", sessionHandler.ReportOffset)
			sessionGroup.PUT("/rate", sessionHandler.SetRate)
			sessionGroup.POST("/flip", sessionHandler.ToggleFlip)
		}

		recorderGroup := api.Group("/recorder")
		{
			recorderGroup.GET("", recorderHandler.GetState)
			recorderGroup.PUT("/event", recorderHandler.SelectEvent)
			recorderGroup.PUT("/answer", recorderHandler.SetAnswer)
			recorderGroup.GET("/validate", recorderHandler.Validate)
			recorderGroup.POST("/submit", recorderHandler.Submit)
		}
	}

	// WebSocket state feed; a "resync" message replays current snapshots.
	router.GET("/ws", realtime.ServeWs(hub, logger, func(send func(event string, payload interface{})) {
		send(session.EventSessionUpdated, sessionCtrl.State())
		send(recorder.EventSelected, encoder.State())
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process scan worker plus an initial catalog scan at boot.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go scanProcessor.Run(workerCtx)
	if err := jobQueue.EnqueueAssetScan(ctx, queue.AssetScanPayload{Root: cfg.Assets.DataDir}); err != nil {
		logger.Warn("initial asset scan enqueue failed", zap.Error(err))
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
