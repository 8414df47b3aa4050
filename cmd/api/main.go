// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/image-forge/internal/cache"
	"github.com/yourusername/image-forge/internal/config"
	"github.com/yourusername/image-forge/internal/convert"
	"github.com/yourusername/image-forge/internal/jobs"
	"github.com/yourusername/image-forge/internal/raster"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowOrigins = origins
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	if err := setupRoutes(router, cfg); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "image-forge-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config) error {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	store, err := newArtifactStore(cfg)
	if err != nil {
		return err
	}
	service := convert.NewService(cfg, raster.DefaultRegistry(), store)

	opts := convert.HandlerOptions{
		MaxFileSize:         cfg.MaxFileSize,
		AsyncThresholdBytes: cfg.AsyncThresholdBytes,
		AsyncThresholdPages: cfg.AsyncThresholdPages,
	}

	// QUEUE_REDIS_URL が設定されている場合のみ非同期処理を有効化
	var jobManager *jobs.Manager
	if cfg.QueueRedisURL != "" {
		manager, err := setupJobs(cfg, service)
		if err != nil {
			return err
		}
		manager.StartWorkers()
		opts.Scheduler = &mediaJobScheduler{manager: manager}
		jobManager = manager
	}

	api := router.Group("/api")
	{
		api.POST("/convert", convert.ConvertHandler(service, opts))
		api.POST("/compress", convert.CompressHandler(service, opts))
		api.POST("/inspect", convert.InspectHandler(service, opts))
		api.GET("/download/:token", convert.DownloadHandler(service))

		unitsRoutes := api.Group("/units")
		{
			unitsRoutes.GET("/categories", convert.UnitsCategoriesHandler())
			unitsRoutes.POST("/convert", convert.UnitsHandler())
		}

		if jobManager != nil {
			api.GET("/jobs/:id", jobStatusHandler(jobManager))
		}
	}

	return nil
}

// newArtifactStore は成果物ストアを組み立てます。
// CACHE_REDIS_URL が設定されていればRedis、なければメモリストアを使います。
func newArtifactStore(cfg *config.Config) (cache.Store, error) {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	if cfg.CacheRedisURL != "" {
		opt, err := redis.ParseURL(cfg.CacheRedisURL)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(redis.NewClient(opt), ttl), nil
	}

	maxEntries := cfg.CacheMaxEntries
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return cache.NewMemoryStore(ttl, maxEntries), nil
}
