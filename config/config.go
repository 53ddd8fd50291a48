package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dbconfig "github.com/declog/declog/orm/config"
	"github.com/declog/declog/types"
)

var (
	Version    = "dev"
	CommitHash = "unknown"

	// Singleton instance
	configInstance *Config
	configOnce     sync.Once
)

// Default configuration constants
const (
	// Port settings
	DefaultAPIPort     = "8080"
	DefaultMetricsPort = "9090"
	MinPortNumber      = 1
	MaxPortNumber      = 65535

	// Database settings
	DefaultDBMaxConns  = 0 // 0 means unlimited (GORM default)
	DefaultDBIdleConns = 2 // GORM default
	DefaultDBBatchSize = 100

	// Cache settings
	DefaultCacheSize        = 1000
	DefaultCacheTTL         = 10 * time.Minute
	DefaultContractNameSize = 10240

	// Timeout and interval settings
	DefaultCoolingDuration = 50 * time.Millisecond
	DefaultQueryTimeout    = 30 * time.Second

	// Concurrent request settings
	DefaultMaxConcurrentRequests = 50
	MaxAllowedConcurrentRequests = 1000

	// Extractor settings
	DefaultExtractorPollInterval = 5 * time.Second
	DefaultExtractorBatchSize    = 10
	DefaultExtractorQueueSize    = 100

	// Metrics settings
	DefaultMetricsPath = "/metrics"

	// Default environment
	DefaultEnvironment = "local"
)

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Port    string `json:"port"`
}

// CacheConfig contains sizes for the in-process caches
type CacheConfig struct {
	ContractNameCacheSize int `json:"contract_name_cache_size"`
}

// SentryConfig contains configuration for Sentry integration
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	SampleRate       float64 `json:"sample_rate"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Environment      string  `json:"environment"`
}

func SetBuildInfo(v, commit string) {
	Version = v
	CommitHash = commit
}

type Config struct {
	listenPort            string
	dbConfig              *dbconfig.Config
	chainConfig           *ChainConfig
	logLevel              string
	logFormat             string
	coolingDuration       time.Duration // for worker only
	queryTimeout          time.Duration // for worker only
	maxConcurrentRequests int
	cacheSize             int
	cacheTTL              time.Duration // for api only
	extractorConfig       *ExtractorConfig
	metricsConfig         *MetricsConfig
	cacheConfig           *CacheConfig
	sentryConfig          *SentryConfig

	// Start height configuration
	startHeight    int64 // explicit start height when set
	startHeightSet bool  // whether START_HEIGHT was provided
}

func setDefaults() {
	viper.SetDefault("PORT", DefaultAPIPort)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("DB_BATCH_SIZE", DefaultDBBatchSize)
	viper.SetDefault("DB_MAX_CONNS", DefaultDBMaxConns)
	viper.SetDefault("DB_IDLE_CONNS", DefaultDBIdleConns)
	viper.SetDefault("COOLING_DURATION", DefaultCoolingDuration)
	viper.SetDefault("QUERY_TIMEOUT", DefaultQueryTimeout)
	viper.SetDefault("MAX_CONCURRENT_REQUESTS", DefaultMaxConcurrentRequests)
	viper.SetDefault("LOG_LEVEL", "warn")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("CACHE_SIZE", DefaultCacheSize)
	viper.SetDefault("CACHE_TTL", DefaultCacheTTL)
	viper.SetDefault("EXTRACTOR_POLL_INTERVAL", DefaultExtractorPollInterval)
	viper.SetDefault("EXTRACTOR_BATCH_SIZE", DefaultExtractorBatchSize)
	viper.SetDefault("EXTRACTOR_QUEUE_SIZE", DefaultExtractorQueueSize)
	viper.SetDefault("EXTRACTOR_INCLUDE_REVERTED", true)
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_PATH", DefaultMetricsPath)
	viper.SetDefault("METRICS_PORT", DefaultMetricsPort)
	viper.SetDefault("ENVIRONMENT", DefaultEnvironment)

	// Sentry defaults
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_SAMPLE_RATE", 0.01)
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.01)

	// Cache defaults
	viper.SetDefault("CONTRACT_NAME_CACHE_SIZE", DefaultContractNameSize)

	// CHAIN_ID and JSON_RPC_URLS have no defaults
}

func GetConfig() (*Config, error) {
	var err error

	configOnce.Do(func() {
		configInstance, err = loadConfig()
	})

	return configInstance, err
}

func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// just log without panic, local testing purpose only
		fmt.Fprintln(os.Stderr, "No .env file found")
	}
	viper.AutomaticEnv()
	setDefaults()

	dc := &dbconfig.Config{
		DSN:         viper.GetString("DB_DSN"),
		AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		MaxConns:    viper.GetInt("DB_MAX_CONNS"),
		IdleConns:   viper.GetInt("DB_IDLE_CONNS"),
		BatchSize:   viper.GetInt("DB_BATCH_SIZE"),
	}

	cc := &ChainConfig{
		ChainId:        viper.GetString("CHAIN_ID"),
		JsonRpcUrls:    splitUrls(viper.GetString("JSON_RPC_URLS")),
		ExplorerUrl:    viper.GetString("EXPLORER_URL"),
		ExplorerApiKey: viper.GetString("EXPLORER_API_KEY"),
		Environment:    viper.GetString("ENVIRONMENT"),
	}

	config := &Config{
		listenPort:            viper.GetString("PORT"),
		dbConfig:              dc,
		chainConfig:           cc,
		logLevel:              viper.GetString("LOG_LEVEL"),
		logFormat:             viper.GetString("LOG_FORMAT"),
		coolingDuration:       viper.GetDuration("COOLING_DURATION"),
		queryTimeout:          viper.GetDuration("QUERY_TIMEOUT"),
		maxConcurrentRequests: viper.GetInt("MAX_CONCURRENT_REQUESTS"),
		cacheSize:             viper.GetInt("CACHE_SIZE"),
		cacheTTL:              viper.GetDuration("CACHE_TTL"),
		extractorConfig: &ExtractorConfig{
			PollInterval:    viper.GetDuration("EXTRACTOR_POLL_INTERVAL"),
			BatchSize:       viper.GetInt("EXTRACTOR_BATCH_SIZE"),
			QueueSize:       viper.GetInt("EXTRACTOR_QUEUE_SIZE"),
			IncludeReverted: viper.GetBool("EXTRACTOR_INCLUDE_REVERTED"),
		},
		metricsConfig: &MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
			Port:    viper.GetString("METRICS_PORT"),
		},
		cacheConfig: &CacheConfig{
			ContractNameCacheSize: viper.GetInt("CONTRACT_NAME_CACHE_SIZE"),
		},
		sentryConfig: &SentryConfig{
			DSN:              viper.GetString("SENTRY_DSN"),
			SampleRate:       viper.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: viper.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Environment:      viper.GetString("ENVIRONMENT"),
		},
	}

	// parse optional START_HEIGHT env var. Accepts integer >= 0.
	raw := strings.TrimSpace(viper.GetString("START_HEIGHT"))
	if raw != "" {
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || val < 0 {
			return nil, types.NewInvalidValueError("START_HEIGHT", raw, "must be a non-negative integer")
		}
		config.startHeight = val
		config.startHeightSet = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func splitUrls(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func (c Config) GetListenPort() string {
	return c.listenPort
}

// SetDBConfig assigns the DB config for testing purposes.
func (c *Config) SetDBConfig(dbCfg *dbconfig.Config) {
	c.dbConfig = dbCfg
}

func (c Config) GetDBConfig() *dbconfig.Config {
	return c.dbConfig
}

// SetChainConfig assigns the chain config for testing purposes.
func (c *Config) SetChainConfig(chainCfg *ChainConfig) {
	c.chainConfig = chainCfg
}

func (c Config) GetChainConfig() *ChainConfig {
	return c.chainConfig
}

// SetExtractorConfig assigns the extractor config for testing purposes.
func (c *Config) SetExtractorConfig(extractorCfg *ExtractorConfig) {
	c.extractorConfig = extractorCfg
}

// SetCacheConfig assigns the cache config for testing purposes.
func (c *Config) SetCacheConfig(cacheCfg *CacheConfig) {
	c.cacheConfig = cacheCfg
}

// SetMaxConcurrentRequests overrides the request limit for testing purposes.
func (c *Config) SetMaxConcurrentRequests(n int) {
	c.maxConcurrentRequests = n
}

func (c Config) GetDBBatchSize() int {
	return c.dbConfig.BatchSize
}

func (c Config) GetCacheSize() int {
	return c.cacheSize
}

func (c Config) GetCacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) GetChainId() string {
	return c.chainConfig.ChainId
}

func (c Config) GetExtractorConfig() *ExtractorConfig {
	return c.extractorConfig
}

func (c Config) GetSentryConfig() *SentryConfig {
	if c.sentryConfig == nil || c.sentryConfig.DSN == "" {
		return nil
	}
	return c.sentryConfig
}

func (c Config) GetLogLevel() slog.Level {
	switch c.logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func (c Config) GetCoolingDuration() time.Duration {
	return c.coolingDuration
}

func (c Config) GetQueryTimeout() time.Duration {
	return c.queryTimeout
}

func (c Config) GetMaxConcurrentRequests() int {
	return c.maxConcurrentRequests
}

func (c Config) GetMetricsConfig() *MetricsConfig {
	return c.metricsConfig
}

func (c Config) GetCacheConfig() *CacheConfig {
	return c.cacheConfig
}

func (c Config) GetLogFormat() string {
	if c.logFormat == "json" {
		return "json"
	}
	return "plain"
}

// Start height accessors
func (c Config) StartHeightSet() bool {
	return c.startHeightSet
}

func (c Config) GetStartHeight() int64 {
	return c.startHeight
}

func (c Config) Validate() error {
	if err := c.validatePort(); err != nil {
		return err
	}
	if err := c.validateLogSettings(); err != nil {
		return err
	}
	if err := c.validateNumericSettings(); err != nil {
		return err
	}
	if err := c.validateExtractorConfig(); err != nil {
		return err
	}
	if err := c.validateMetricsConfig(); err != nil {
		return err
	}
	return c.chainConfig.Validate()
}

// validatePort validates the listen port configuration
func (c Config) validatePort() error {
	if len(c.listenPort) == 0 {
		return types.NewValidationError("PORT", "required field is missing")
	}
	if port, err := strconv.Atoi(c.listenPort); err != nil || port < MinPortNumber || port > MaxPortNumber {
		return types.NewValidationError("PORT", fmt.Sprintf("must be a valid port number (%d-%d)", MinPortNumber, MaxPortNumber))
	}
	return nil
}

// validateLogSettings validates log format and level configuration
func (c Config) validateLogSettings() error {
	switch c.logFormat {
	case "json", "plain":
		break
	default:
		return types.NewValidationError("LOG_FORMAT", fmt.Sprintf("invalid value '%s', must be 'json' or 'plain'", c.logFormat))
	}

	switch c.logLevel {
	case "debug", "info", "warn", "error":
		break
	default:
		return types.NewValidationError("LOG_LEVEL", fmt.Sprintf("invalid value '%s', must be one of: debug, info, warn, error", c.logLevel))
	}
	return nil
}

// validateNumericSettings validates all numeric configuration values
func (c Config) validateNumericSettings() error {
	if c.cacheSize < 0 {
		return types.NewValidationError("CACHE_SIZE", "must be non-negative")
	}
	if c.cacheTTL < 0 {
		return types.NewValidationError("CACHE_TTL", "must be non-negative")
	}
	if c.coolingDuration < 0 {
		return types.NewValidationError("COOLING_DURATION", "must be non-negative")
	}
	if c.queryTimeout <= 0 {
		return types.NewValidationError("QUERY_TIMEOUT", "must be positive")
	}
	if c.maxConcurrentRequests < 1 {
		return types.NewValidationError("MAX_CONCURRENT_REQUESTS", "must be at least 1")
	}
	if c.maxConcurrentRequests > MaxAllowedConcurrentRequests {
		return types.NewInvalidValueError("MAX_CONCURRENT_REQUESTS", fmt.Sprintf("%d", c.maxConcurrentRequests), fmt.Sprintf("must not exceed %d", MaxAllowedConcurrentRequests))
	}
	return nil
}

// validateExtractorConfig validates extraction worker configuration
func (c Config) validateExtractorConfig() error {
	if c.extractorConfig == nil {
		return nil
	}
	if c.extractorConfig.PollInterval <= 0 {
		return types.NewValidationError("EXTRACTOR_POLL_INTERVAL", "must be positive")
	}
	if c.extractorConfig.BatchSize < 1 {
		return types.NewValidationError("EXTRACTOR_BATCH_SIZE", "must be at least 1")
	}
	if c.extractorConfig.QueueSize < 1 {
		return types.NewValidationError("EXTRACTOR_QUEUE_SIZE", "must be at least 1")
	}
	return nil
}

// validateMetricsConfig validates metrics configuration
func (c Config) validateMetricsConfig() error {
	if c.metricsConfig == nil || !c.metricsConfig.Enabled {
		return nil
	}
	if port, err := strconv.Atoi(c.metricsConfig.Port); err != nil || port < MinPortNumber || port > MaxPortNumber {
		return types.NewValidationError("METRICS_PORT", fmt.Sprintf("must be a valid port number (%d-%d)", MinPortNumber, MaxPortNumber))
	}
	if c.metricsConfig.Port == c.listenPort {
		return types.NewValidationError("METRICS_PORT", fmt.Sprintf("metrics port %s conflicts with API port", c.metricsConfig.Port))
	}
	if c.metricsConfig.Path == "" || c.metricsConfig.Path[0] != '/' {
		return types.NewValidationError("METRICS_PATH", "must start with '/'")
	}
	return nil
}
