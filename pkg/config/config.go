package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Groq      GroqConfig      `mapstructure:"groq"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	LogLevel  string          `mapstructure:"log_level"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
	CatalogPath string `mapstructure:"catalog_path"`
}

type GroqConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

type SentimentConfig struct {
	EscalateThreshold float64 `mapstructure:"escalate_threshold"`
}

type AnalyticsConfig struct {
	InteractionCapacity int     `mapstructure:"interaction_capacity"`
	SentimentCapacity   int     `mapstructure:"sentiment_capacity"`
	QueryCapacity       int     `mapstructure:"query_capacity"`
	ContainmentTarget   float64 `mapstructure:"containment_target"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		if _, err := fmt.Sscanf(u.Port(), "%d", &port); err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q", u.Port())
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "vikas")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.max_tokens", 1024)
	v.SetDefault("groq.temperature", 0.7)
	v.SetDefault("groq.timeout", 30*time.Second)
	v.SetDefault("groq.max_retries", 3)
	v.SetDefault("groq.backoff_base", time.Second)
	v.SetDefault("sentiment.escalate_threshold", -0.5)
	v.SetDefault("analytics.interaction_capacity", 10000)
	v.SetDefault("analytics.sentiment_capacity", 1000)
	v.SetDefault("analytics.query_capacity", 1000)
	v.SetDefault("analytics.containment_target", 0.85)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "vikas.interactions")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads path if it exists, then applies environment overrides
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		dbConfig.CatalogPath = config.Database.CatalogPath
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("GROQ_API_KEY"); apiKey != "" {
		config.Groq.APIKey = apiKey
	}
	if brokers := v.GetString("KAFKA_BROKERS"); brokers != "" {
		config.Kafka.Brokers = splitList(brokers)
		config.Kafka.Enabled = true
	}
	if addr := v.GetString("HTTP_ADDR"); addr != "" {
		config.HTTP.Addr = addr
	}

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
