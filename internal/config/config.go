package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type GmailConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
}

type ClassifierConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type PipelineConfig struct {
	BatchSize        int `yaml:"batch_size"`
	CleanupBatchSize int `yaml:"cleanup_batch_size"`
	Concurrency      int `yaml:"concurrency"`
	MessageDelayMS   int `yaml:"message_delay_ms"`
	QuotaDailyLimit  int `yaml:"quota_daily_limit"`
}

type PushConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Server           ServerConfig     `yaml:"server"`
	DB               DBConfig         `yaml:"db"`
	Redis            RedisConfig      `yaml:"redis"`
	MQ               MQConfig         `yaml:"mq"`
	Gmail            GmailConfig      `yaml:"gmail"`
	Classifier       ClassifierConfig `yaml:"classifier"`
	Pipeline         PipelineConfig   `yaml:"pipeline"`
	Push             PushConfig       `yaml:"push"`
	Categories       []string         `yaml:"categories"`
	FallbackCategory string           `yaml:"fallback_category"`
}

// Load reads the YAML config at path, then applies .env and environment
// variable overrides. Missing tunables fall back to defaults.
func Load(path string) *Config {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Gmail.BaseURL == "" {
		cfg.Gmail.BaseURL = "https://gmail.googleapis.com"
	}
	if cfg.Classifier.TimeoutSeconds == 0 {
		cfg.Classifier.TimeoutSeconds = 30
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 1
	}
	if cfg.Pipeline.CleanupBatchSize == 0 {
		cfg.Pipeline.CleanupBatchSize = 50
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = 1
	}
	if cfg.Pipeline.QuotaDailyLimit == 0 {
		cfg.Pipeline.QuotaDailyLimit = 1300
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = "Important"
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if token := os.Getenv("GMAIL_ACCESS_TOKEN"); token != "" {
		cfg.Gmail.AccessToken = token
	}
	if url := os.Getenv("CLASSIFIER_URL"); url != "" {
		cfg.Classifier.URL = url
	}
	if secret := os.Getenv("PUSH_JWT_SECRET"); secret != "" {
		cfg.Push.JWTSecret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}
