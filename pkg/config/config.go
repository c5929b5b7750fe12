// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultPath is used when neither --config nor MAILQUEUE_CONFIG is set.
	DefaultPath = "./mailqueue.yaml"

	DefaultBlockSize     = 500
	DefaultSMTPPort      = 25
	DefaultSenderAddress = "noreply@localhost"
	DefaultSenderName    = "mailqueue"
)

// ErrInvalidBlockSize is returned for a block size below one.
var ErrInvalidBlockSize = errors.New("block size must be a positive integer")

// Mailer holds the settings of the send-mail command itself.
type Mailer struct {
	// PauseSend disables all sending without touching the queue.
	PauseSend bool `yaml:"pauseSend"`
	// BlockSize is the default number of messages handled before the queue
	// is checked again. Zero means DefaultBlockSize. The --block-size flag
	// overrides it.
	BlockSize int `yaml:"blockSize"`
}

// Mail is the SMTP relay used by the send loop.
type Mail struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

// Database locates the PostgreSQL database holding the queue tables.
type Database struct {
	DSN string `yaml:"dsn"`
	// AutoMigrate creates or updates the queue tables on connect.
	AutoMigrate bool `yaml:"autoMigrate"`
}

type Config struct {
	Mailer   Mailer   `yaml:"mailer"`
	Mail     Mail     `yaml:"mail"`
	Database Database `yaml:"database"`
}

// Load reads the mailqueue configuration from path and applies environment
// overrides and defaults. An empty path means DefaultPath. A missing file is
// only tolerated for DefaultPath, so that the binary can run purely from the
// environment.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("trying to open mailqueue config file %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with MAILQUEUE_* environment variables.
// A set MAILQUEUE_BLOCK_SIZE must be a positive integer.
func (c *Config) ApplyEnv() error {
	c.Mailer.PauseSend = getEnvBool("MAILQUEUE_PAUSE_SEND", c.Mailer.PauseSend)
	if val := strings.TrimSpace(os.Getenv("MAILQUEUE_BLOCK_SIZE")); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return fmt.Errorf("MAILQUEUE_BLOCK_SIZE=%q: %w", val, ErrInvalidBlockSize)
		}
		c.Mailer.BlockSize = n
	}

	c.Database.DSN = getEnvString("MAILQUEUE_DATABASE_DSN", getEnvString("DATABASE_URL", c.Database.DSN))
	c.Database.AutoMigrate = getEnvBool("MAILQUEUE_DATABASE_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Mail.Host = getEnvString("MAILQUEUE_SMTP_HOST", c.Mail.Host)
	c.Mail.Port = getEnvInt("MAILQUEUE_SMTP_PORT", c.Mail.Port)
	c.Mail.User = getEnvString("MAILQUEUE_SMTP_USER", c.Mail.User)
	c.Mail.Password = getEnvString("MAILQUEUE_SMTP_PASSWORD", c.Mail.Password)
	return nil
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Mailer.BlockSize == 0 {
		c.Mailer.BlockSize = DefaultBlockSize
	}
	if c.Mail.Port <= 0 {
		c.Mail.Port = DefaultSMTPPort
	}
	if c.Mail.SenderAddress == "" {
		c.Mail.SenderAddress = DefaultSenderAddress
	}
	if c.Mail.SenderName == "" {
		c.Mail.SenderName = DefaultSenderName
	}
}

// Validate rejects settings Defaults cannot repair.
func (c *Config) Validate() error {
	if c.Mailer.BlockSize < 1 {
		return fmt.Errorf("mailer.blockSize: %w, got %d", ErrInvalidBlockSize, c.Mailer.BlockSize)
	}
	return nil
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return defaultVal
}
