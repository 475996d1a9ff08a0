package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// S3Config is the object-storage publish target, read from WALLRENDER_S3_*.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3FromEnv reads the publish target from the environment.
func S3FromEnv() (S3Config, error) {
	useSSL, err := envBool("WALLRENDER_S3_USE_SSL", true)
	if err != nil {
		return S3Config{}, err
	}
	cfg := S3Config{
		Endpoint:  envString("WALLRENDER_S3_ENDPOINT", ""),
		AccessKey: envString("WALLRENDER_S3_ACCESS_KEY", ""),
		SecretKey: envString("WALLRENDER_S3_SECRET_KEY", ""),
		Region:    envString("WALLRENDER_S3_REGION", "us-east-1"),
		Bucket:    envString("WALLRENDER_S3_BUCKET", "renders"),
		Prefix:    envString("WALLRENDER_S3_PREFIX", ""),
		UseSSL:    useSSL,
	}
	if err := cfg.Validate(); err != nil {
		return S3Config{}, err
	}
	return cfg, nil
}

// Validate reports missing or malformed publish settings.
func (c S3Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("WALLRENDER_S3_ENDPOINT is required for --publish")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("WALLRENDER_S3_ACCESS_KEY and WALLRENDER_S3_SECRET_KEY are required for --publish")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}
