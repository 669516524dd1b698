package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Speech  SpeechConfig
	VQA     VQAConfig
	Storage StorageConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// SpeechConfig holds the cloud speech-service credential. An empty Key
// disables the token relay rather than failing startup.
type SpeechConfig struct {
	Key    string
	Region string
}

type VQAConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	TimeoutSec  int
}

type StorageConfig struct {
	Path          string
	RetentionDays int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	// .env is optional; environment wins either way.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/seesound")

	viper.SetEnvPrefix("SEESOUND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// SpeechEnabled reports whether the speech token relay has a credential.
func (c *Config) SpeechEnabled() bool {
	return c.Speech.Key != ""
}

// VQAEnabled reports whether the inference adapter has a credential.
func (c *Config) VQAEnabled() bool {
	return c.VQA.APIKey != ""
}

// StorageEnabled reports whether a durable preference store is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Path != ""
}

// RedisEnabled reports whether the preference cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("speech.key", "")
	viper.SetDefault("speech.region", "eastus")

	viper.SetDefault("vqa.apiKey", "")
	viper.SetDefault("vqa.baseURL", "")
	viper.SetDefault("vqa.model", "gpt-4o-mini")
	viper.SetDefault("vqa.maxTokens", 256)
	viper.SetDefault("vqa.temperature", 0.0)
	viper.SetDefault("vqa.timeoutSec", 60)

	viper.SetDefault("storage.path", "./data/seesound.db")
	viper.SetDefault("storage.retentionDays", 0)

	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
