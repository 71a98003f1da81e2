package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ClientConfig configures the storefront CLI.
type ClientConfig struct {
	APIURL      string        `envconfig:"STOREFRONT_API_URL" default:"http://localhost:8082/api/v1"`
	HTTPTimeout time.Duration `envconfig:"STOREFRONT_HTTP_TIMEOUT" default:"10s"`
	SessionFile string        `envconfig:"STOREFRONT_SESSION_FILE"`
	LogLevel    string        `envconfig:"STOREFRONT_LOG_LEVEL" default:"warn"`
}

// LoadClient parses the STOREFRONT_* environment.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(ClientEnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%s is required", EnvStorefrontAPIURL)
	}
	if cfg.SessionFile == "" {
		path, err := defaultSessionFile()
		if err != nil {
			return nil, err
		}
		cfg.SessionFile = path
	}
	return &cfg, nil
}

func defaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "qkart", "session.yaml"), nil
}
