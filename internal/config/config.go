package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Weather
	WeatherAPIKey      string
	WeatherAPIEndpoint string
	WeatherAPIInterval time.Duration

	// Forecast worker
	ForecastRefreshInterval time.Duration
	ForecastWindowDays      int
	CleanupInterval         time.Duration

	// Rate Limit
	RateLimitGeneral    int
	RateLimitTripCreate int
	TrustForwardedIP    bool

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// WEATHER_API_KEYは任意で、未設定の場合は天気補正が無効になる。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.WeatherAPIEndpoint = getEnvString("WEATHER_API_ENDPOINT", "https://api.weatherapi.example/v1/forecast")
	cfg.WeatherAPIInterval = getEnvDuration("WEATHER_API_INTERVAL", 1*time.Second)
	cfg.ForecastRefreshInterval = getEnvDuration("FORECAST_REFRESH_INTERVAL", 6*time.Hour)
	cfg.ForecastWindowDays = getEnvInt("FORECAST_WINDOW_DAYS", 7)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitTripCreate = getEnvInt("RATE_LIMIT_TRIP_CREATE", 10)
	cfg.TrustForwardedIP = getEnvBool("TRUST_FORWARDED_IP", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// WeatherEnabled は天気予報の取得が構成されているかどうかを返す。
func (c *Config) WeatherEnabled() bool {
	return c.WeatherAPIKey != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
