package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port        string   `yaml:"port" toml:"port"`
	GinMode     string   `yaml:"gin_mode" toml:"gin_mode"`
	CORSOrigins string   `yaml:"cors_origins" toml:"cors_origins"`
	Database    Database `yaml:"database" toml:"database"`
	JWT         JWT      `yaml:"jwt" toml:"jwt"`
	Email       Email    `yaml:"email" toml:"email"`
	Reports     Reports  `yaml:"reports" toml:"reports"`
	Printer     Printer  `yaml:"printer" toml:"printer"`
	Business    Business `yaml:"business" toml:"business"`
	Uploads     Uploads  `yaml:"uploads" toml:"uploads"`
	Orders      Orders   `yaml:"orders" toml:"orders"`
	AMQP        AMQP     `yaml:"amqp" toml:"amqp"`
	Log         Log      `yaml:"log" toml:"log"`
}

type Database struct {
	Driver       string `yaml:"driver" toml:"driver"` // sqlite, postgres or mysql
	DSN          string `yaml:"dsn" toml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" toml:"max_idle_conns"`
}

type JWT struct {
	Secret        string `yaml:"secret" toml:"secret"`
	ExpireMinutes int    `yaml:"expire_minutes" toml:"expire_minutes"`
	RememberDays  int    `yaml:"remember_days" toml:"remember_days"`
}

type Email struct {
	PostmarkToken   string   `yaml:"postmark_token" toml:"postmark_token"`
	From            string   `yaml:"from" toml:"from"`
	DailyRecipients []string `yaml:"daily_recipients" toml:"daily_recipients"`
	DailyTime       string   `yaml:"daily_time" toml:"daily_time"` // HH:MM
	Timezone        string   `yaml:"timezone" toml:"timezone"`
	ResetURL        string   `yaml:"reset_url" toml:"reset_url"`
}

type Reports struct {
	TimeoutSeconds int `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type Printer struct {
	Type        string `yaml:"type" toml:"type"` // usb, network or file
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	TestMode    bool   `yaml:"test_mode" toml:"test_mode"`
	FilePath    string `yaml:"file_path" toml:"file_path"`
	NetworkAddr string `yaml:"network_addr" toml:"network_addr"`
	USBDevice   string `yaml:"usb_device" toml:"usb_device"`
	Width       int    `yaml:"width" toml:"width"`
}

type Business struct {
	Name    string `yaml:"name" toml:"name"`
	Address string `yaml:"address" toml:"address"`
	Phone   string `yaml:"phone" toml:"phone"`
}

type Uploads struct {
	Dir      string `yaml:"dir" toml:"dir"`
	MaxBytes int64  `yaml:"max_bytes" toml:"max_bytes"`
}

type Orders struct {
	StrictStaff bool `yaml:"strict_staff" toml:"strict_staff"`
	AutoPrint   bool `yaml:"auto_print" toml:"auto_print"`
}

type AMQP struct {
	URL      string `yaml:"url" toml:"url"`
	Exchange string `yaml:"exchange" toml:"exchange"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:        "8080",
		GinMode:     "debug",
		CORSOrigins: "*",
		Database: Database{
			Driver:       "sqlite",
			DSN:          "cafe_pos.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		JWT: JWT{
			Secret:        "cafe_pos_dev_secret_change_me",
			ExpireMinutes: 480,
			RememberDays:  30,
		},
		Email: Email{
			From:      "noreply@cafepos.local",
			DailyTime: "07:00",
			Timezone:  "UTC",
			ResetURL:  "http://localhost:3000/reset-password",
		},
		Reports: Reports{TimeoutSeconds: 10},
		Printer: Printer{
			Type:        "file",
			FilePath:    "./receipts/receipt.txt",
			NetworkAddr: "192.168.1.100:9100",
			USBDevice:   "/dev/usb/lp0",
			Width:       32,
		},
		Business: Business{
			Name:    "CafePOS",
			Address: "123 Coffee Street",
			Phone:   "(555) 123-4567",
		},
		Uploads: Uploads{Dir: "uploads", MaxBytes: 10 << 20},
		Orders:  Orders{AutoPrint: true},
		AMQP:    AMQP{Exchange: "cafe.alerts"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load builds the config from defaults, then CONFIG_FILE (yaml or toml), then env vars.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	case ".toml":
		err = toml.Unmarshal(raw, cfg)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.Email.PostmarkToken = getEnv("POSTMARK_SERVER_TOKEN", cfg.Email.PostmarkToken)
	cfg.Email.From = getEnv("EMAIL_FROM", cfg.Email.From)
	cfg.Email.DailyTime = getEnv("DAILY_EMAIL_TIME", cfg.Email.DailyTime)
	cfg.Email.Timezone = getEnv("REPORT_TIMEZONE", cfg.Email.Timezone)
	cfg.Email.ResetURL = getEnv("PASSWORD_RESET_URL", cfg.Email.ResetURL)
	if v := os.Getenv("DAILY_EMAIL_RECIPIENTS"); v != "" {
		cfg.Email.DailyRecipients = SplitList(v)
	}
	cfg.Printer.Type = getEnv("PRINTER_TYPE", cfg.Printer.Type)
	cfg.Printer.FilePath = getEnv("PRINTER_FILE_PATH", cfg.Printer.FilePath)
	cfg.Printer.NetworkAddr = getEnv("PRINTER_NETWORK_ADDR", cfg.Printer.NetworkAddr)
	cfg.Printer.USBDevice = getEnv("PRINTER_USB_DEVICE", cfg.Printer.USBDevice)
	cfg.Business.Name = getEnv("BUSINESS_NAME", cfg.Business.Name)
	cfg.Business.Address = getEnv("BUSINESS_ADDRESS", cfg.Business.Address)
	cfg.Business.Phone = getEnv("BUSINESS_PHONE", cfg.Business.Phone)
	cfg.Uploads.Dir = getEnv("UPLOAD_DIR", cfg.Uploads.Dir)
	cfg.AMQP.URL = getEnv("AMQP_URL", cfg.AMQP.URL)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	ints := map[string]*int{
		"JWT_EXPIRE_MINUTES": &cfg.JWT.ExpireMinutes,
		"REPORT_TIMEOUT":     &cfg.Reports.TimeoutSeconds,
		"PRINTER_WIDTH":      &cfg.Printer.Width,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"PRINTER_ENABLED":     &cfg.Printer.Enabled,
		"PRINTER_TEST_MODE":   &cfg.Printer.TestMode,
		"ORDERS_STRICT_STAFF": &cfg.Orders.StrictStaff,
		"ORDERS_AUTO_PRINT":   &cfg.Orders.AutoPrint,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SplitList parses a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
