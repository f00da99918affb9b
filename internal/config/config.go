package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Auth        AuthConfig                `json:"auth"`
	Completion  CompletionConfig          `json:"completion"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	PersonasPath  string `json:"personas_path"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// AuthConfig carries the JWT signing secret and credential lifetimes.
type AuthConfig struct {
	JWTSecret        string `json:"jwt_secret"`
	AccessTTLMinutes int    `json:"access_ttl_minutes"`
	RefreshTTLHours  int    `json:"refresh_ttl_hours"`
}

// CompletionConfig is fixed per process: one upstream endpoint, one model.
type CompletionConfig struct {
	BaseURL        string  `json:"base_url"`
	Model          string  `json:"model"`
	APIKey         string  `json:"api_key"`
	Temperature    float32 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// Load reads configuration from the provided path (defaults to config.json).
// GROQ_API_KEY and PHILOSCHAT_JWT_SECRET override their file counterparts so
// secrets can stay out of the config file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.Completion.APIKey = key
	}
	if secret := os.Getenv("PHILOSCHAT_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret must be configured")
	}
	if cfg.Auth.AccessTTLMinutes <= 0 {
		cfg.Auth.AccessTTLMinutes = 30
	}
	if cfg.Auth.RefreshTTLHours <= 0 {
		cfg.Auth.RefreshTTLHours = 24 * 7
	}

	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "llama3-70b-8192"
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = 0.7
	}
	if cfg.Completion.MaxTokens <= 0 {
		cfg.Completion.MaxTokens = 1024
	}
	if cfg.Completion.TimeoutSeconds <= 0 {
		cfg.Completion.TimeoutSeconds = 60
	}

	if cfg.BasicConfig.PersonasPath != "" && !filepath.IsAbs(cfg.BasicConfig.PersonasPath) {
		cfg.BasicConfig.PersonasPath = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.PersonasPath)
	}

	return &cfg, nil
}
