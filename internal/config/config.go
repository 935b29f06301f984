package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	BigQuery BigQueryConfig
	Gemini   GeminiConfig
	Telegram TelegramConfig
	GCS      GCSConfig
	Notion   NotionConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string
}

// BigQueryConfig holds dataset settings.
type BigQueryConfig struct {
	Project string
	Dataset string
}

// GeminiConfig holds model settings for the LLM strategy and the assistant.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string
}

// TelegramConfig holds the urgent-insight push settings. Empty token
// disables the notifier.
type TelegramConfig struct {
	Token  string
	ChatID int64 `mapstructure:"chat_id"`
}

// GCSConfig holds report export settings.
type GCSConfig struct {
	Bucket string
}

// NotionConfig holds insight sync settings.
type NotionConfig struct {
	Token      string
	DatabaseID string `mapstructure:"database_id"`
}

// JobsConfig holds in-memory queue settings.
type JobsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
	Workers    int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix
// EQUILIBRA_, e.g. EQUILIBRA_BIGQUERY_PROJECT.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("bigquery.project", "equilibra-prod")
	v.SetDefault("bigquery.dataset", "equilibra")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("gcs.bucket", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("jobs.buffer_size", 100)
	v.SetDefault("jobs.workers", 5)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("EQUILIBRA_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "equilibra"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("EQUILIBRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
