// Package config loads server configuration from an optional YAML file and
// environment variables, then applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/damacus/iron-drive/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Storage StorageConfig  `yaml:"storage"`
	Auth    AuthConfig     `yaml:"auth"`
	Log     logging.Config `yaml:"log"`
}

type ServerConfig struct {
	Address   string `yaml:"address" default:":8080" validate:"required"`
	BodyLimit string `yaml:"body_limit" default:"100M"`
}

type StorageConfig struct {
	Backend         string `yaml:"backend" default:"minio" validate:"oneof=minio s3 memory"`
	Endpoint        string `yaml:"endpoint" validate:"required_unless=Backend memory"`
	AccessKey       string `yaml:"access_key" validate:"required_unless=Backend memory"`
	SecretKey       string `yaml:"secret_key" validate:"required_unless=Backend memory"`
	Bucket          string `yaml:"bucket" default:"user-files" validate:"required"`
	Region          string `yaml:"region" default:"us-east-1"`
	Secure          string `yaml:"secure" default:"auto" validate:"oneof=auto true false"`
	MoveConcurrency int    `yaml:"move_concurrency" default:"8" validate:"min=1,max=256"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret" validate:"required,min=32"`
	CookieName string `yaml:"cookie_name" default:"IronDrive"`
}

// Load reads path (skipped when empty), overlays the environment, then
// applies defaults and validation. A .env file in the working directory is
// loaded first when present.
func Load(path string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("set config defaults: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	overrides := []struct {
		env    string
		target *string
	}{
		{"LISTEN_ADDR", &cfg.Server.Address},
		{"BODY_LIMIT", &cfg.Server.BodyLimit},
		{"STORAGE_BACKEND", &cfg.Storage.Backend},
		{"MINIO_ENDPOINT", &cfg.Storage.Endpoint},
		{"STORAGE_ENDPOINT", &cfg.Storage.Endpoint},
		{"STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey},
		{"STORAGE_SECRET_KEY", &cfg.Storage.SecretKey},
		{"STORAGE_BUCKET", &cfg.Storage.Bucket},
		{"STORAGE_REGION", &cfg.Storage.Region},
		{"STORAGE_SECURE", &cfg.Storage.Secure},
		{"AUTH_JWT_SECRET", &cfg.Auth.JWTSecret},
		{"AUTH_COOKIE_NAME", &cfg.Auth.CookieName},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_ENCODING", &cfg.Log.Encoding},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}

	if v := os.Getenv("STORAGE_MOVE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STORAGE_MOVE_CONCURRENCY: %w", err)
		}
		cfg.Storage.MoveConcurrency = n
	}
	return nil
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate config: %w", err)
	}

	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}
	return fmt.Errorf("invalid config fields: %s", strings.Join(failed, ", "))
}
