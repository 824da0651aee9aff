package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/incidenthq/api/internal/config"
	"github.com/incidenthq/api/internal/infra/postgres"
)

// fileConfig is the optional YAML config file. Every field overrides
// the corresponding DB_* environment variable when set.
type fileConfig struct {
	Database struct {
		Host     string `yaml:"host,omitempty"`
		Port     int    `yaml:"port,omitempty"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
		Name     string `yaml:"name,omitempty"`
		SSLMode  string `yaml:"sslmode,omitempty"`
	} `yaml:"database"`
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".incidenthq", "config.yaml")
}

func loadFileConfig() (*fileConfig, error) {
	path := flagConfig
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// databaseConfig builds the connection settings from the environment,
// then applies config-file overrides. The CLI keeps a small pool; it
// runs one command and exits.
func databaseConfig() (*config.DatabaseConfig, error) {
	cfg := &config.DatabaseConfig{
		Host:            envString("DB_HOST", "localhost"),
		Port:            envInt("DB_PORT", 5432),
		User:            envString("DB_USER", "incidenthq"),
		Password:        envString("DB_PASSWORD", "secret"),
		Name:            envString("DB_NAME", "incidenthq"),
		SSLMode:         envString("DB_SSLMODE", "disable"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}

	fc, err := loadFileConfig()
	if err != nil {
		return nil, err
	}
	if fc.Database.Host != "" {
		cfg.Host = fc.Database.Host
	}
	if fc.Database.Port != 0 {
		cfg.Port = fc.Database.Port
	}
	if fc.Database.User != "" {
		cfg.User = fc.Database.User
	}
	if fc.Database.Password != "" {
		cfg.Password = fc.Database.Password
	}
	if fc.Database.Name != "" {
		cfg.Name = fc.Database.Name
	}
	if fc.Database.SSLMode != "" {
		cfg.SSLMode = fc.Database.SSLMode
	}

	return cfg, nil
}

func openDB() (*postgres.DB, error) {
	cfg, err := databaseConfig()
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "connecting to %s:%d/%s as %s\n", cfg.Host, cfg.Port, cfg.Name, cfg.User)
	}

	db, err := postgres.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
