// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// ファイル制限
	MaxFileSize int64 // 単一ファイルの最大サイズ（バイト）

	// 変換設定
	JPEGQuality        int     // JPEG変換時の品質 (1-100)
	ConvertRenderScale float64 // PDF→画像変換時のレンダリング倍率

	// ダウンロードストア設定
	CacheTTLMinutes int    // 成果物の保持時間（分）
	CacheMaxEntries int    // メモリストアの最大エントリ数
	CacheRedisURL   string // 設定時はRedisストアを使用

	// ジョブ/キュー設定
	QueueRedisURL       string // Asynq用Redis接続URL（空なら非同期処理は無効）
	AsyncThresholdBytes int64  // 同期処理から非同期へ切り替えるサイズ閾値
	AsyncThresholdPages int    // 同期処理から非同期へ切り替えるページ閾値
	JobExpireMinutes    int    // ジョブの有効期限（分）
	WorkDir             string // ジョブワークスペースのルートディレクトリ
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// ファイル制限
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 104857600), // 100MB

		// 変換設定
		JPEGQuality:        getEnvAsInt("JPEG_QUALITY", 85),
		ConvertRenderScale: getEnvAsFloat("CONVERT_RENDER_SCALE", 2.0),

		// ダウンロードストア設定
		CacheTTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 10),
		CacheMaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 256),
		CacheRedisURL:   getEnv("CACHE_REDIS_URL", ""),

		// ジョブ/キュー設定
		QueueRedisURL:       getEnv("QUEUE_REDIS_URL", ""),
		AsyncThresholdBytes: getEnvAsInt64("ASYNC_THRESHOLD_BYTES", 50*1024*1024), // 50MB
		AsyncThresholdPages: getEnvAsInt("ASYNC_THRESHOLD_PAGES", 120),
		JobExpireMinutes:    getEnvAsInt("JOB_EXPIRE_MINUTES", 10),
		WorkDir:             getEnv("WORK_DIR", filepath.Join(os.TempDir(), "image-forge")),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be in 1..100")
	}
	if c.ConvertRenderScale <= 0 {
		return fmt.Errorf("CONVERT_RENDER_SCALE must be positive")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("WORK_DIR is required")
	}

	// 本番で非同期処理を使う場合のみキュー設定を厳格にチェックする
	if c.GinMode == "release" && c.QueueRedisURL != "" {
		if c.JobExpireMinutes <= 0 {
			return fmt.Errorf("JOB_EXPIRE_MINUTES must be positive in release mode")
		}
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します。
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
