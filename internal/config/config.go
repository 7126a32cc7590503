package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	validLogFormats = []string{"text", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validDrivers    = []string{"mysql", "postgres", "sqlite"}
	validLocales    = []string{"de", "en"}
)

type Config struct {
	Server struct {
		Port           int               `yaml:"port" toml:"port"`
		AllowedOrigins []string          `yaml:"allowedOrigins" toml:"allowed_origins"`
		APIKeys        map[string]string `yaml:"apiKeys" toml:"api_keys"` // tenant -> key
		RateLimit      struct {
			Capacity   int `yaml:"capacity" toml:"capacity"`
			RefillRate int `yaml:"refillRate" toml:"refill_rate"`
		} `yaml:"rateLimit" toml:"rate_limit"`
	} `yaml:"server" toml:"server"`

	LLM struct {
		Model         string `yaml:"model" toml:"model"`
		BaseURL       string `yaml:"baseURL" toml:"base_url"`
		Endpoint      string `yaml:"endpoint" toml:"endpoint"`
		APIKey        string `yaml:"apiKey" toml:"api_key"`
		MaxTokens     int    `yaml:"maxTokens" toml:"max_tokens"`
		Locale        string `yaml:"locale" toml:"locale"`
		RedactSecrets bool   `yaml:"redactSecrets" toml:"redact_secrets"`
	} `yaml:"llm" toml:"llm"`

	Database struct {
		Driver   string `yaml:"driver" toml:"driver"`
		Host     string `yaml:"host" toml:"host"`
		Port     int    `yaml:"port" toml:"port"`
		User     string `yaml:"user" toml:"user"`
		Password string `yaml:"password" toml:"password"`
		Name     string `yaml:"name" toml:"name"`
		SSLMode  string `yaml:"sslMode" toml:"ssl_mode"`
		Path     string `yaml:"path" toml:"path"` // sqlite only
	} `yaml:"database" toml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint" toml:"endpoint"`
		AccessKey  string `yaml:"accessKey" toml:"access_key"`
		SecretKey  string `yaml:"secretKey" toml:"secret_key"`
		BucketName string `yaml:"bucketName" toml:"bucket_name"`
		Region     string `yaml:"region" toml:"region"`
		UseSSL     bool   `yaml:"useSSL" toml:"use_ssl"`
	} `yaml:"minio" toml:"minio"`

	Log struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"log" toml:"log"`
}

// Default returns a config holding only defaults.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load baca file config (.yaml/.yml atau .toml), isi default, lalu env override
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional is Load that falls back to defaults (plus env overrides) when
// the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg = Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 20
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3.3:70b"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://host.docker.internal:3000/api"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2000
	}
	if c.LLM.Locale == "" {
		c.LLM.Locale = "de"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "codelens.db")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "codelens-reports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// secrets boleh di-override lewat env supaya tidak perlu ditulis di file
func (c *Config) applyEnv() {
	if v := os.Getenv("CODELENS_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("CODELENS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("CODELENS_MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

// Validate checks the values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log level %q (valid: %s)", c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("invalid log format %q (valid: %s)", c.Log.Format, strings.Join(validLogFormats, ", "))
	}
	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver %q (valid: %s)", c.Database.Driver, strings.Join(validDrivers, ", "))
	}
	if !slices.Contains(validLocales, strings.ToLower(c.LLM.Locale)) {
		return fmt.Errorf("invalid llm locale %q (valid: %s)", c.LLM.Locale, strings.Join(validLocales, ", "))
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm maxTokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid llm baseURL %q", c.LLM.BaseURL)
	}
	if c.LLM.Endpoint != "" {
		if u, err := url.Parse(c.LLM.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid llm endpoint %q", c.LLM.Endpoint)
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// MinioEnabled reports whether reports should be archived.
func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
