package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Kakao    KakaoConfig
	Notion   NotionConfig
	Map      MapConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	AllowOrigins string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	StreamsDB int
}

type CacheConfig struct {
	CoordinatesCacheTTL time.Duration
	PlacesCacheTTL      time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// KakaoConfig - ключи Kakao: JS-ключ для SDK карты и REST-ключ для поиска
type KakaoConfig struct {
	MapAppKey      string
	RestAPIKey     string
	SDKURL         string
	LocalBaseURL   string
	RequestTimeout int // seconds
}

// NotionConfig - контент-бэкенд
type NotionConfig struct {
	Token          string
	DatabaseID     string
	BaseURL        string
	Version        string
	RequestTimeout int // seconds
}

// MapConfig - параметры карты и цепочки разрешения координат
type MapConfig struct {
	ReferenceLat       float64
	ReferenceLng       float64
	DefaultLevel       int
	RegionHint         string
	SanityThresholdM   float64
	ReadyTimeout       time.Duration
	PollInterval       time.Duration
	ResolveConcurrency int
	ClusterMinLevel    int
	BoundsPadding      int
	RelayoutDelay      time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return fromViper(), nil
}

func fromViper() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("API_HOST"),
			Port:         viper.GetInt("API_PORT"),
			Env:          viper.GetString("API_ENV"),
			AllowOrigins: viper.GetString("API_ALLOW_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:         viper.GetBool("DB_ENABLED"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetInt("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			StreamsDB: viper.GetInt("REDIS_STREAMS_DB"),
		},
		Cache: CacheConfig{
			CoordinatesCacheTTL: time.Duration(viper.GetInt("COORDINATES_CACHE_TTL")) * time.Second,
			PlacesCacheTTL:      time.Duration(viper.GetInt("PLACES_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Kakao: KakaoConfig{
			MapAppKey:      viper.GetString("KAKAO_MAP_APP_KEY"),
			RestAPIKey:     viper.GetString("KAKAO_REST_API_KEY"),
			SDKURL:         viper.GetString("KAKAO_SDK_URL"),
			LocalBaseURL:   viper.GetString("KAKAO_LOCAL_BASE_URL"),
			RequestTimeout: viper.GetInt("KAKAO_REQUEST_TIMEOUT"),
		},
		Notion: NotionConfig{
			Token:          viper.GetString("NOTION_TOKEN"),
			DatabaseID:     viper.GetString("NOTION_DATABASE_ID"),
			BaseURL:        viper.GetString("NOTION_BASE_URL"),
			Version:        viper.GetString("NOTION_VERSION"),
			RequestTimeout: viper.GetInt("NOTION_REQUEST_TIMEOUT"),
		},
		Map: MapConfig{
			ReferenceLat:       viper.GetFloat64("MAP_REFERENCE_LAT"),
			ReferenceLng:       viper.GetFloat64("MAP_REFERENCE_LNG"),
			DefaultLevel:       viper.GetInt("MAP_DEFAULT_LEVEL"),
			RegionHint:         viper.GetString("MAP_REGION_HINT"),
			SanityThresholdM:   viper.GetFloat64("MAP_SANITY_THRESHOLD_M"),
			ReadyTimeout:       time.Duration(viper.GetInt("MAP_READY_TIMEOUT_MS")) * time.Millisecond,
			PollInterval:       time.Duration(viper.GetInt("MAP_POLL_INTERVAL_MS")) * time.Millisecond,
			ResolveConcurrency: viper.GetInt("MAP_RESOLVE_CONCURRENCY"),
			ClusterMinLevel:    viper.GetInt("MAP_CLUSTER_MIN_LEVEL"),
			BoundsPadding:      viper.GetInt("MAP_BOUNDS_PADDING"),
			RelayoutDelay:      time.Duration(viper.GetInt("MAP_RELAYOUT_DELAY_MS")) * time.Millisecond,
		},
	}

	cfg.applyDefaults()

	return cfg
}

// applyDefaults - значения по умолчанию для незаданных параметров
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Cache.CoordinatesCacheTTL == 0 {
		c.Cache.CoordinatesCacheTTL = 7 * 24 * time.Hour
	}
	if c.Cache.PlacesCacheTTL == 0 {
		c.Cache.PlacesCacheTTL = 5 * time.Minute
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "place-resolve-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Kakao.SDKURL == "" {
		c.Kakao.SDKURL = "https://dapi.kakao.com/v2/maps/sdk.js"
	}
	if c.Kakao.LocalBaseURL == "" {
		c.Kakao.LocalBaseURL = "https://dapi.kakao.com"
	}
	if c.Kakao.RequestTimeout == 0 {
		c.Kakao.RequestTimeout = 10
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = "https://api.notion.com"
	}
	if c.Notion.Version == "" {
		c.Notion.Version = "2022-06-28"
	}
	if c.Notion.RequestTimeout == 0 {
		c.Notion.RequestTimeout = 30
	}
	if c.Map.ReferenceLat == 0 && c.Map.ReferenceLng == 0 {
		// станция Синчон
		c.Map.ReferenceLat = 37.5552
		c.Map.ReferenceLng = 126.9369
	}
	if c.Map.DefaultLevel == 0 {
		c.Map.DefaultLevel = 4
	}
	if c.Map.RegionHint == "" {
		c.Map.RegionHint = "신촌"
	}
	if c.Map.SanityThresholdM == 0 {
		c.Map.SanityThresholdM = 5000
	}
	if c.Map.ReadyTimeout == 0 {
		c.Map.ReadyTimeout = 10 * time.Second
	}
	if c.Map.PollInterval == 0 {
		c.Map.PollInterval = 100 * time.Millisecond
	}
	if c.Map.ResolveConcurrency == 0 {
		c.Map.ResolveConcurrency = 1
	}
	if c.Map.ClusterMinLevel == 0 {
		c.Map.ClusterMinLevel = 5
	}
	if c.Map.BoundsPadding == 0 {
		c.Map.BoundsPadding = 50
	}
	if c.Map.RelayoutDelay == 0 {
		c.Map.RelayoutDelay = 100 * time.Millisecond
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN - строка подключения для драйвера pgx
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
