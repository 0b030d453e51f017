package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	DB     DBConfig     `yaml:"db"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Redis  RedisConfig  `yaml:"redis"`
	GenAI  GenAIConfig  `yaml:"genai"`
	Auth   AuthConfig   `yaml:"auth"`
	Worker WorkerConfig `yaml:"worker"`
}

type HTTPConfig struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` //nolint:gosec // config struct, not hardcoded cred
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"` //nolint:gosec // config struct, not hardcoded cred
	DB       int    `yaml:"db"`
}

type GenAIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"` //nolint:gosec // config struct, not hardcoded cred
	Model      string        `yaml:"model"`
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` //nolint:gosec // config struct, not hardcoded cred
}

type WorkerConfig struct {
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderWindow   time.Duration `yaml:"reminder_window"`
}

func Load() (*Config, error) {
	configPath := getConfigPath()
	data, err := os.ReadFile(configPath) //nolint:gosec // config path from env/flag
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"/etc/chat-practice-service/config.yaml",
		"./config.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}

	if cfg.GenAI.BaseURL == "" {
		cfg.GenAI.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "gemini-2.0-flash"
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 7
	}
	if cfg.GenAI.BaseDelay == 0 {
		cfg.GenAI.BaseDelay = time.Second
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60 * time.Second
	}

	if cfg.Worker.ReminderInterval == 0 {
		cfg.Worker.ReminderInterval = time.Hour
	}
	if cfg.Worker.ReminderWindow == 0 {
		cfg.Worker.ReminderWindow = 24 * time.Hour
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}
	if val := os.Getenv("HTTP_TIMEOUT"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			cfg.HTTP.Timeout = time.Duration(timeout) * time.Second
		}
	}

	if val := os.Getenv("DB_HOST"); val != "" {
		cfg.DB.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.DB.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		cfg.DB.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		cfg.DB.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		cfg.DB.DBName = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		cfg.DB.SSLMode = val
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		cfg.Kafka.Brokers = strings.Split(val, ",")
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}

	if val := os.Getenv("GENAI_BASE_URL"); val != "" {
		cfg.GenAI.BaseURL = val
	}
	if val := os.Getenv("GENAI_API_KEY"); val != "" {
		cfg.GenAI.APIKey = val
	}
	if val := os.Getenv("GENAI_MODEL"); val != "" {
		cfg.GenAI.Model = val
	}
	if val := os.Getenv("GENAI_MAX_RETRIES"); val != "" {
		if retries, err := strconv.Atoi(val); err == nil {
			cfg.GenAI.MaxRetries = retries
		}
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		cfg.Auth.JWTSecret = val
	}
}

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("HTTP address must be set")
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker must be specified")
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return fmt.Errorf("database configuration is incomplete")
	}

	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis address must be set")
	}

	if cfg.GenAI.APIKey == "" {
		return fmt.Errorf("genai api key must be set")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be set")
	}

	return nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
