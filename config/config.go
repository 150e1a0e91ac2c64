package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Upload  UploadConfig  `yaml:"upload"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
	TimeZone  string `yaml:"time_zone"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

// APIConfig points at the upstream muroom REST API.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig selects an object storage backend. Driver is one of
// "none", "minio" or "s3".
type StorageConfig struct {
	Driver         string      `yaml:"driver"`
	Minio          MinioConfig `yaml:"minio"`
	S3             S3Config    `yaml:"s3"`
	PresignMinutes int         `yaml:"presign_minutes"`
	// Verify makes the coordinator stat every object after its write.
	Verify bool `yaml:"verify"`
}

func (c StorageConfig) PresignExpiry() time.Duration {
	return time.Duration(c.PresignMinutes) * time.Minute
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	// Region skips the bucket location lookup when signing URLs.
	Region string `yaml:"region"`
}

type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// CategoryLimit bounds how many items a category may hold.
type CategoryLimit struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type UploadConfig struct {
	// Issuer is "api" (the backend signs URLs) or "storage" (this service signs them).
	Issuer       string                   `yaml:"issuer"`
	Concurrency  int                      `yaml:"concurrency"`
	MaxFileBytes int64                    `yaml:"max_file_bytes"`
	Limits       map[string]CategoryLimit `yaml:"limits"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxDrafts int `yaml:"max_drafts"`
}

// Load reads a YAML file, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.TimeZone == "" {
		c.Server.TimeZone = "Asia/Seoul"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "none"
	}
	if c.Storage.Minio.Region == "" {
		c.Storage.Minio.Region = "us-east-1"
	}
	if c.Storage.PresignMinutes == 0 {
		c.Storage.PresignMinutes = 15
	}
	if c.Upload.Issuer == "" {
		c.Upload.Issuer = "api"
	}
	if c.Upload.Concurrency <= 0 {
		c.Upload.Concurrency = 4
	}
	if c.Upload.MaxFileBytes == 0 {
		c.Upload.MaxFileBytes = 20 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.MaxDrafts == 0 {
		c.Store.MaxDrafts = 200
	}
}

// applyEnv lets deployments keep the upstream URL and storage secrets out of the file.
func (c *Config) applyEnv() error {
	if v := os.Getenv("MUROOM_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MUROOM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MUROOM_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("MUROOM_STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.Minio.AccessKey = v
		c.Storage.S3.AccessKey = v
	}
	if v := os.Getenv("MUROOM_STORAGE_SECRET_KEY"); v != "" {
		c.Storage.Minio.SecretKey = v
		c.Storage.S3.SecretKey = v
	}
	return nil
}

// Validate rejects combinations the services cannot start with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Storage.Driver {
	case "none":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("storage.minio needs endpoint and bucket")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3 needs region and bucket")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Upload.Issuer {
	case "api":
	case "storage":
		if c.Storage.Driver == "none" {
			return fmt.Errorf("upload.issuer storage requires a storage driver")
		}
	default:
		return fmt.Errorf("unknown upload.issuer %q", c.Upload.Issuer)
	}
	if c.Storage.Verify && c.Storage.Driver == "none" {
		return fmt.Errorf("storage.verify requires a storage driver")
	}
	if _, err := time.LoadLocation(c.Server.TimeZone); err != nil {
		return fmt.Errorf("server.time_zone: %w", err)
	}
	for name, l := range c.Upload.Limits {
		if l.Min < 0 || l.Max < 1 || l.Min > l.Max {
			return fmt.Errorf("upload.limits.%s: invalid bounds %d..%d", name, l.Min, l.Max)
		}
	}
	return nil
}

// Location resolves the dashboard's time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
