package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SourceAPI  SourceAPIConfig  `mapstructure:"source_api"`
	TargetAPI  TargetAPIConfig  `mapstructure:"target_api"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	RetryQueue RetryQueueConfig `mapstructure:"retry_queue"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Host          string `mapstructure:"host"`
	ReadTimeout   int    `mapstructure:"read_timeout"`
	WriteTimeout  int    `mapstructure:"write_timeout"`
	IdleTimeout   int    `mapstructure:"idle_timeout"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// DatabaseConfig holds mapping store database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis configuration for the retry queue
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SourceAPIConfig holds credentials and endpoint for the source
// time-tracking service
type SourceAPIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	AccountID string `mapstructure:"account_id"`
	Timeout   int    `mapstructure:"timeout"`
}

// TargetAPIConfig holds credentials and endpoint for the target
// time-tracking service
type TargetAPIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	OrgCode  string `mapstructure:"org_code"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UserID   string `mapstructure:"user_id"`
	Timeout  int    `mapstructure:"timeout"`
}

// NotifierConfig holds the failure notification webhook configuration
type NotifierConfig struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
}

// RetryQueueConfig holds retry queue configuration
type RetryQueueConfig struct {
	Key           string `mapstructure:"key"`
	ProcessingKey string `mapstructure:"processing_key"`
	Workers       int    `mapstructure:"workers"`
}

// SyncConfig holds synchronization behaviour configuration
type SyncConfig struct {
	ExcludedLabelIDs  []int64  `mapstructure:"excluded_label_ids"`
	ExcludedClients   []string `mapstructure:"excluded_clients"`
	RetentionDays     int      `mapstructure:"retention_days"`
	CleanupBatchSize  int      `mapstructure:"cleanup_batch_size"`
	SuggestionMarker  string   `mapstructure:"suggestion_marker"`
	ProjectColor      string   `mapstructure:"project_color"`
	ProjectRateType   string   `mapstructure:"project_rate_type"`
	ProjectUserIDs    []int64  `mapstructure:"project_user_ids"`
	ProjectLabelFrom  int64    `mapstructure:"project_label_from"`
	ProjectLabelTo    int64    `mapstructure:"project_label_to"`
	ProjectEnableMode string   `mapstructure:"project_enable_mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProjectLabelIDs returns the static label roster applied to new projects.
func (s SyncConfig) ProjectLabelIDs() []int64 {
	if s.ProjectLabelTo < s.ProjectLabelFrom {
		return nil
	}
	ids := make([]int64, 0, s.ProjectLabelTo-s.ProjectLabelFrom+1)
	for id := s.ProjectLabelFrom; id <= s.ProjectLabelTo; id++ {
		ids = append(ids, id)
	}
	return ids
}

// LoadConfig loads configuration from environment and config files
func LoadConfig() (*Config, error) {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)
	viper.SetDefault("server.webhook_secret", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.dbname", "timesheet_sync")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("source_api.base_url", "https://api.service1.com/1.1")
	viper.SetDefault("source_api.timeout", 30)
	viper.SetDefault("target_api.base_url", "https://api.service2.com/service/api")
	viper.SetDefault("target_api.timeout", 30)
	viper.SetDefault("notifier.timeout", 10)
	viper.SetDefault("retry_queue.key", "sync:retry")
	viper.SetDefault("retry_queue.processing_key", "sync:retry:processing")
	viper.SetDefault("retry_queue.workers", 2)
	viper.SetDefault("sync.excluded_label_ids", []int64{1111, 2222})
	viper.SetDefault("sync.excluded_clients", []string{"Client1", "Client2", "Client3", "Client4"})
	viper.SetDefault("sync.retention_days", 45)
	viper.SetDefault("sync.cleanup_batch_size", 100)
	viper.SetDefault("sync.suggestion_marker", "suggested_hours")
	viper.SetDefault("sync.project_color", "FFFFFF")
	viper.SetDefault("sync.project_rate_type", "project")
	viper.SetDefault("sync.project_user_ids", []int64{
		2215558, 2215702, 2232597, 2232598, 2232596, 2215698, 2232599, 2232600,
		2230571, 2215699, 2215700, 2215701, 2244639, 2244640, 2244638, 2244644,
		2244643, 2245192, 2244647, 2244646, 2244641, 2244637,
	})
	viper.SetDefault("sync.project_label_from", 4018292)
	viper.SetDefault("sync.project_label_to", 4018305)
	viper.SetDefault("sync.project_enable_mode", "custom")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
