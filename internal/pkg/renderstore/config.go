package renderstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/SvenKoller/RenderKeep/internal/pkg/env"
)

// Config holds S3 render storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_STORAGE_ENABLED", "false") == "true",
	}

	// Validate required fields if S3 storage is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 render storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKeyFor generates a standardized object key for a render artifact.
// Format: renders/YYYY/MM/UUID.png
func (c *Config) ObjectKeyFor(renderUUID string, createdAt time.Time) string {
	return fmt.Sprintf("renders/%04d/%02d/%s.png", createdAt.UTC().Year(), int(createdAt.UTC().Month()), renderUUID)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}

// GetBucketName returns the bucket name as configured
func (c *Config) GetBucketName() string {
	return c.BucketName
}
