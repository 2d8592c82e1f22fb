package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/testerpub/internal/transport/redis"
)

// TransportFile mirrors the YAML schema of the optional transport file:
//
//	redis:
//	  host: redis.internal
//	  port: 6379
//	  password: s3cret
//	  dial_timeout: 2s
type TransportFile struct {
	Redis struct {
		URL            string        `yaml:"url"`
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		Username       string        `yaml:"username"`
		Password       string        `yaml:"password"`
		DB             *int          `yaml:"db"`
		DialTimeout    time.Duration `yaml:"dial_timeout"`
		HealthInterval time.Duration `yaml:"health_interval"`
	} `yaml:"redis"`
}

// LoadTransportFile parses the YAML transport file at path.
func LoadTransportFile(path string) (TransportFile, error) {
	var f TransportFile
	//nolint:gosec // path comes from operator configuration
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading transport file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parsing transport file %q: %w", path, err)
	}
	return f, nil
}

// Apply overlays the non-empty file values onto opts.
func (f TransportFile) Apply(opts redis.Options) redis.Options {
	r := f.Redis
	if r.URL != "" {
		opts.URL = r.URL
	}
	if r.Host != "" {
		opts.Host = r.Host
	}
	if r.Port > 0 {
		opts.Port = r.Port
	}
	if r.Username != "" {
		opts.Username = r.Username
	}
	if r.Password != "" {
		opts.Password = r.Password
	}
	if r.DB != nil {
		opts.DB = *r.DB
	}
	if r.DialTimeout > 0 {
		opts.DialTimeout = r.DialTimeout
	}
	if r.HealthInterval > 0 {
		opts.HealthInterval = r.HealthInterval
	}
	return opts
}
