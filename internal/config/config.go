package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	envDevelopment = "development"
	defaultDBPath  = "./dev.db"
	defaultPort    = "8080"
)

// Config holds application configuration sourced from the environment and an
// optional YAML file.
type Config struct {
	Env     string  `mapstructure:"app_env"`
	Port    string  `mapstructure:"port"`
	DBPath  string  `mapstructure:"db_path"`
	Log     Log     `mapstructure:"log"`
	Rates   Rates   `mapstructure:"rates"`
	SMTP    SMTP    `mapstructure:"smtp"`
	Company Company `mapstructure:"company"`
}

// Log configures logrus.
type Log struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// Rates configures the exchange rate feed.
type Rates struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// SMTP is the outgoing mail account.
type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"pass"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	ReplyTo  string `mapstructure:"reply_to"`
}

// Company is the issuer printed on quotes.
type Company struct {
	Name    string `mapstructure:"name"`
	TaxID   string `mapstructure:"tax_id"`
	Address string `mapstructure:"address"`
	Email   string `mapstructure:"email"`
	Phone   string `mapstructure:"phone"`
	Website string `mapstructure:"website"`
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == envDevelopment
}

var defaults = map[string]any{
	"app_env":         envDevelopment,
	"port":            defaultPort,
	"db_path":         defaultDBPath,
	"log.level":       "info",
	"log.dir":         "",
	"rates.url":       "https://mindicador.cl/api",
	"rates.timeout":   "5s",
	"rates.max_age":   "12h",
	"smtp.host":       "",
	"smtp.port":       587,
	"smtp.user":       "",
	"smtp.pass":       "",
	"smtp.from":       "",
	"smtp.from_name":  "",
	"smtp.reply_to":   "",
	"company.name":    "",
	"company.tax_id":  "",
	"company.address": "",
	"company.email":   "",
	"company.phone":   "",
	"company.website": "",
}

// Load reads the environment and returns a populated Config.
func Load() Config {
	cfg, err := LoadFile("")
	if err != nil {
		log.Warnf("load config failed, using defaults, err:%v", err)
	}
	return cfg
}

// LoadFile is Load with an optional YAML config file. Environment variables
// override file values; nested keys map to upper snake case (smtp.from_name
// reads SMTP_FROM_NAME).
func LoadFile(path string) (Config, error) {
	// Best-effort: load local dev environment variables.
	// Production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		log.Warnf("load .env failed, err:%v", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var readErr error
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			readErr = fmt.Errorf("read config file %s: %w", path, err)
		} else {
			log.Infof("using config file: %s", v.ConfigFileUsed())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fallback(), fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	cfg.warn()
	return cfg, readErr
}

// loadDotEnv loads a dotenv file without overwriting existing variables.
// A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func fallback() Config {
	cfg := Config{}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.Env == "" {
		c.Env = envDevelopment
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Rates.Timeout <= 0 {
		c.Rates.Timeout = 5 * time.Second
	}
	if c.Rates.MaxAge <= 0 {
		c.Rates.MaxAge = 12 * time.Hour
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

func (c Config) warn() {
	if c.SMTP.Host == "" {
		log.Warn("SMTP_HOST is not set, quote emails are disabled")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		log.Warn("SMTP_FROM is not set, quote emails are disabled")
	}
	if c.Company.Name == "" {
		log.Warn("COMPANY_NAME is not set")
	}
}
