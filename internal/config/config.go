package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Local     LocalConfig     `mapstructure:"local"`
	Sync      SyncConfig      `mapstructure:"sync"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig points at the cloud document store.
type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// LocalConfig points at the local key/value store.
type LocalConfig struct {
	Path      string `mapstructure:"path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Cloud drivers accepted in SyncConfig.CloudDriver.
const (
	CloudMongo  = "mongo"
	CloudMemory = "memory"
	CloudNone   = "none"
)

type SyncConfig struct {
	CloudDriver   string        `mapstructure:"cloud_driver"`
	Debounce      time.Duration `mapstructure:"debounce"`
	MaxWait       time.Duration `mapstructure:"max_wait"` // zero means 5x debounce
	DegradedAfter int           `mapstructure:"degraded_after"`
	CloudWorkers  int           `mapstructure:"cloud_workers"`
	PullOnBoot    bool          `mapstructure:"pull_on_boot"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether media uploads can be offered.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AdminConfig holds the back-office login. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type AssistantConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path, when present, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Existing environment wins over .env; a missing .env is fine.
	_ = godotenv.Load(strings.TrimRight(path, "/") + "/.env")

	// Nested keys map to env vars: sync.debounce -> SYNC_DEBOUNCE
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil // env vars and defaults are enough
	} else if err != nil {
		return
	}

	// Durations are given as strings ("300ms", "1h") and decoded by viper.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "sports_academy")
	v.SetDefault("local.path", "data/academy.db")
	v.SetDefault("local.key_prefix", "academy_")
	v.SetDefault("sync.cloud_driver", CloudMongo)
	v.SetDefault("sync.debounce", "300ms")
	v.SetDefault("sync.degraded_after", 3)
	v.SetDefault("sync.cloud_workers", 4)
	v.SetDefault("sync.pull_on_boot", false)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.expiration", "12h")
	v.SetDefault("assistant.model", "gemini-2.0-flash")
	v.SetDefault("assistant.timeout", "20s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"s3.endpoint", "s3.region", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name",
		"jwt.secret", "admin.email", "admin.password_hash", "assistant.api_key", "log.file",
	} {
		v.SetDefault(key, "")
	}
}
