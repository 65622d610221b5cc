package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/focus"
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	DatabaseURL   string `yaml:"database_url"`
	// DigestTime is when the daily agenda is sent, "HH:MM" in Timezone.
	DigestTime string `yaml:"digest_time"`
	LoginURL   string `yaml:"login_url"`
	SignupURL  string `yaml:"signup_url"`
	BackupDir  string `yaml:"backup_dir"`
	Timezone   string `yaml:"timezone"`
	// AutoLink creates an account link for unknown Telegram users.
	AutoLink          bool `yaml:"auto_link"`
	FocusWorkMinutes  int  `yaml:"focus_work_minutes"`
	FocusBreakMinutes int  `yaml:"focus_break_minutes"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DatabaseURL:       "planner.db",
		DigestTime:        "08:00",
		LoginURL:          "https://flynesis.app/login",
		SignupURL:         "https://flynesis.app/signup",
		BackupDir:         "~/.flynesis/backups",
		Timezone:          "Local",
		FocusWorkMinutes:  int(focus.DefaultWork / time.Minute),
		FocusBreakMinutes: int(focus.DefaultBreak / time.Minute),
	}
}

// Load reads the optional YAML file named by PLANNER_CONFIG and then applies
// environment variables on top of it.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("PLANNER_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}
	cfg.normalize()

	dir, err := homedir.Expand(cfg.BackupDir)
	if err != nil {
		return cfg, fmt.Errorf("backup dir: %w", err)
	}
	cfg.BackupDir = dir

	if _, err := datetime.ParseClock(cfg.DigestTime); err != nil {
		return cfg, fmt.Errorf("DIGEST_TIME: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(raw string) error {
	path, err := homedir.Expand(raw)
	if err != nil {
		return fmt.Errorf("config path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("TELEGRAM_TOKEN", &c.TelegramToken)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("DIGEST_TIME", &c.DigestTime)
	setString("LOGIN_URL", &c.LoginURL)
	setString("SIGNUP_URL", &c.SignupURL)
	setString("BACKUP_DIR", &c.BackupDir)
	setString("TIMEZONE", &c.Timezone)

	if v := strings.TrimSpace(os.Getenv("AUTO_LINK")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_LINK: %w", err)
		}
		c.AutoLink = b
	}
	for key, dst := range map[string]*int{
		"FOCUS_WORK_MINUTES":  &c.FocusWorkMinutes,
		"FOCUS_BREAK_MINUTES": &c.FocusBreakMinutes,
	} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) normalize() {
	def := Default()
	if c.DatabaseURL == "" {
		c.DatabaseURL = def.DatabaseURL
	}
	if c.DigestTime == "" {
		c.DigestTime = def.DigestTime
	}
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.FocusWorkMinutes <= 0 {
		c.FocusWorkMinutes = def.FocusWorkMinutes
	}
	if c.FocusBreakMinutes <= 0 {
		c.FocusBreakMinutes = def.FocusBreakMinutes
	}
}

// RequireBot checks the settings only the Telegram frontend needs.
func (c Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// Focus returns the focus timer durations.
func (c Config) Focus() focus.Config {
	return focus.Config{
		Work:  time.Duration(c.FocusWorkMinutes) * time.Minute,
		Break: time.Duration(c.FocusBreakMinutes) * time.Minute,
	}
}
