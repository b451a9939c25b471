package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Import godotenv for loading .env files
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Media    MediaConfig    `json:"media"`
	Stream   StreamConfig   `json:"stream"`
	Storage  StorageConfig  `json:"storage"`
	Security SecurityConfig `json:"security"`
}

type ServerConfig struct {
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type MediaConfig struct {
	Root         string   `json:"root"`
	ChannelsFile string   `json:"channels_file"`
	VideoExts    []string `json:"video_exts"`
}

type StreamConfig struct {
	FFmpegPath string `json:"ffmpeg_path"`
	LogLines   int    `json:"log_lines"`
}

// StorageConfig holds the S3-compatible bucket credentials. All four fields
// must be set for the storage client to come up; otherwise /download and the
// /storage endpoints report the client as not initialized.
type StorageConfig struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"-"`
	Bucket          string `json:"bucket"`
}

type SecurityConfig struct {
	CORSOrigins []string      `json:"cors_origins"`
	RateLimit   int           `json:"rate_limit"`
	RateWindow  time.Duration `json:"rate_window"`
}

// Load reads configuration from environment variables and the .env file.
func Load() (*Config, error) {
	cfg := &Config{}

	portStr := getEnv("PORT", "8787")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	cfg.Server = ServerConfig{
		Port:         port,
		Host:         getEnv("HOST", "127.0.0.1"),
		ReadTimeout:  getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
	}

	cfg.Media = MediaConfig{
		Root:         getEnv("MEDIA_ROOT", "public"),
		ChannelsFile: getEnv("CHANNELS_FILE", "channels.json"),
		VideoExts:    []string{".mp4", ".webm", ".ogg", ".mov", ".avi"},
	}

	cfg.Stream = StreamConfig{
		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		LogLines:   getIntEnv("STREAM_LOG_LINES", 200),
	}

	cfg.Storage = StorageConfig{
		Endpoint:        getEnv("R2_ENDPOINT", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("R2_BUCKET_NAME", ""),
	}

	cfg.Security = SecurityConfig{
		CORSOrigins: splitOrigins(getEnv("CORS_ORIGINS", "*")),
		RateLimit:   getIntEnv("RATE_LIMIT", 100),
		RateWindow:  getDurationEnv("RATE_WINDOW", 1*time.Minute),
	}

	return cfg, nil
}

// Configured reports whether the storage credentials are complete.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Media.Root == "" {
		return fmt.Errorf("media root is required")
	}
	if c.Stream.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}
	if c.Stream.LogLines <= 0 {
		return fmt.Errorf("stream log lines must be positive: %d", c.Stream.LogLines)
	}
	return nil
}

func splitOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, origin := range strings.Split(s, ",") {
		origins = append(origins, strings.TrimSpace(origin))
	}
	return origins
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
