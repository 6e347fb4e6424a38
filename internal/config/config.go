package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database  DatabaseConfig   `json:"database"`
	LogConfig logger.LogConfig `json:"log_config"`
	BlobStore BlobStoreConfig  `json:"blob_store"`
	Staging   BlobStoreConfig  `json:"staging_store"`
	AI        AIConfig         `json:"ai"`
	Ingest    IngestConfig     `json:"ingest"`
	Chat      ChatConfig       `json:"chat"`
	Retrieval RetrievalConfig  `json:"retrieval"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type BlobStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	ChatModel      string      `json:"chat_model"`
	VisionModel    string      `json:"vision_model"`
	EmbedModel     string      `json:"embed_model"`
	MaxTokens      int         `json:"max_tokens"`
	Temperature    float64     `json:"temperature"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl_minutes"`
}

type IngestConfig struct {
	WorkerPoolSize    int      `json:"worker_pool_size"`
	SignedURLTTL      int      `json:"signed_url_ttl_minutes"`
	OCRLanguages      []string `json:"ocr_languages"`
	StuckAgeMinutes   int      `json:"stuck_age_minutes"`
	RecoveryCronSpec  string   `json:"recovery_cron_spec"`
	CleanupCronSpec   string   `json:"cleanup_cron_spec"`
	DefaultDailyLimit int      `json:"default_daily_token_limit"`
}

type ChatConfig struct {
	HistoryWindow int    `json:"history_window"`
	MaxImageSize  int64  `json:"max_image_size"`
	SystemPrompt  string `json:"system_prompt"`
}

type RetrievalConfig struct {
	MatchThreshold float64 `json:"match_threshold"`
	MatchCount     int     `json:"match_count"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.BlobStore.Type == "" {
		return nil, fmt.Errorf("blob_store.type is required")
	}
	if cfg.Staging.Type == "" {
		return nil, fmt.Errorf("staging_store.type is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gpt-4o"
	}
	if cfg.AI.VisionModel == "" {
		cfg.AI.VisionModel = "gpt-4o-mini"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-3-large"
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 1000
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.7
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 120
	}
	if cfg.Ingest.WorkerPoolSize == 0 {
		cfg.Ingest.WorkerPoolSize = 4
	}
	if cfg.Ingest.SignedURLTTL == 0 {
		cfg.Ingest.SignedURLTTL = 15
	}
	if len(cfg.Ingest.OCRLanguages) == 0 {
		cfg.Ingest.OCRLanguages = []string{"eng"}
	}
	if cfg.Ingest.StuckAgeMinutes == 0 {
		cfg.Ingest.StuckAgeMinutes = 30
	}
	if cfg.Ingest.RecoveryCronSpec == "" {
		cfg.Ingest.RecoveryCronSpec = "*/10 * * * *"
	}
	if cfg.Ingest.CleanupCronSpec == "" {
		cfg.Ingest.CleanupCronSpec = "0 * * * *"
	}
	if cfg.Ingest.DefaultDailyLimit == 0 {
		cfg.Ingest.DefaultDailyLimit = 100000
	}
	if cfg.Chat.HistoryWindow == 0 {
		cfg.Chat.HistoryWindow = 50
	}
	if cfg.Chat.MaxImageSize == 0 {
		cfg.Chat.MaxImageSize = 10 * 1024 * 1024
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = "You are a helpful assistant. Use the provided context to answer questions accurately and concisely."
	}
	if cfg.Retrieval.MatchThreshold == 0 {
		cfg.Retrieval.MatchThreshold = 0.2
	}
	if cfg.Retrieval.MatchCount == 0 {
		cfg.Retrieval.MatchCount = 5
	}
	return &cfg, nil
}
