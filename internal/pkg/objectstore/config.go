package objectstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

// Config holds the S3-compatible object storage configuration. BoxBin keeps
// item photos and generated label sheets here.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // optional, for S3-compatible services
	Enabled         bool
}

// LoadConfig loads object storage configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_STORAGE_ENABLED", "false") == "true",
	}

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

// IsEnabled returns true if object storage is configured.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// PhotoKey generates the object key for an item photo.
// Format: photos/YYYY/MM/UUID.ext
func (c *Config) PhotoKey(photoUUID, fileExtension string, t time.Time) string {
	return fmt.Sprintf("photos/%04d/%02d/%s%s", t.Year(), int(t.Month()), photoUUID, fileExtension)
}

// ThumbnailKey generates the object key for an item photo thumbnail.
func (c *Config) ThumbnailKey(photoUUID string, t time.Time) string {
	return fmt.Sprintf("photos/%04d/%02d/thumbs/%s.jpg", t.Year(), int(t.Month()), photoUUID)
}

// LabelSheetKey generates the object key for a generated label sheet.
func (c *Config) LabelSheetKey(userID uint, name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	return fmt.Sprintf("labels/%d/%s.pdf", userID, name)
}

// GetAppEnv returns the current application environment.
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
