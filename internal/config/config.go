package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config хранит все параметры приложения. Собирается один раз в main и передаётся явно.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Log          LogConfig          `yaml:"log"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	Database     DatabaseConfig     `yaml:"database"`
	Services     ServicesConfig     `yaml:"services"`
	Email        EmailConfig        `yaml:"email"`
	MailerSend   MailerSendConfig   `yaml:"mailersend"`
	Notification NotificationConfig `yaml:"notification"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
}

type HTTPConfig struct {
	Port          int `yaml:"port"`
	MaxConcurrent int `yaml:"max_concurrent" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"use_tls" split_words:"true"`
	Queue    string `yaml:"queue"`
	Prefetch int    `yaml:"prefetch"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres | sqlite | "" (журнал доставки выключен)
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"sslmode" envconfig:"SSLMODE"`
	MaxConns   int    `yaml:"max_conns" split_words:"true"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

// DSN в URL-форме: её понимают и pgxpool, и golang-migrate.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

type ServicesConfig struct {
	OrderURL          string        `yaml:"order_url" split_words:"true"`
	ItemURL           string        `yaml:"item_url" split_words:"true"`
	StoreURL          string        `yaml:"store_url" split_words:"true"`
	DroneURL          string        `yaml:"drone_url" split_words:"true"`
	SchedulingURL     string        `yaml:"scheduling_url" split_words:"true"`
	CustomerURL       string        `yaml:"customer_url" split_words:"true"`
	WeatherURL        string        `yaml:"weather_url" split_words:"true"`
	ConditionCheckURL string        `yaml:"condition_check_url" split_words:"true"`
	NavigationURL     string        `yaml:"navigation_url" split_words:"true"`
	CallTimeout       time.Duration `yaml:"call_timeout" split_words:"true"`
	RequestTimeout    time.Duration `yaml:"request_timeout" split_words:"true"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name" split_words:"true"`
}

type MailerSendConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key" split_words:"true"`
	APIURL  string `yaml:"api_url" split_words:"true"`
}

type NotificationConfig struct {
	DeadLetterOnFailure bool          `yaml:"dead_letter_on_failure" split_words:"true"`
	ContactCacheSize    int           `yaml:"contact_cache_size" split_words:"true"`
	ContactCacheTTL     time.Duration `yaml:"contact_cache_ttl" envconfig:"CONTACT_CACHE_TTL"`
	ReconnectMin        time.Duration `yaml:"reconnect_min" split_words:"true"`
	ReconnectMax        time.Duration `yaml:"reconnect_max" split_words:"true"`
}

type WorkflowConfig struct {
	StrictTransitions bool `yaml:"strict_transitions" split_words:"true"`
}

// Default: значения по умолчанию, совпадающие с docker-compose окружением.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{MaxConcurrent: 50}, // порт по умолчанию зависит от --mode
		Log:  LogConfig{Level: "info", Env: "production"},
		RabbitMQ: RabbitMQConfig{
			Host: "rabbitmq", Port: 5672, User: "guest", Password: "guest", VHost: "/",
			Queue: "notification_queue", Prefetch: 1,
		},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10, SQLitePath: "notifications.db"},
		Services: ServicesConfig{
			OrderURL:          "http://order:5010",
			ItemURL:           "http://item:5002",
			StoreURL:          "http://store:5003",
			DroneURL:          "http://drone:5006",
			SchedulingURL:     "http://scheduling:5001",
			CustomerURL:       "http://customer:5004",
			ConditionCheckURL: "http://condition-check:5100",
			NavigationURL:     "http://drone-navigation:5200",
			CallTimeout:       5 * time.Second,
			RequestTimeout:    30 * time.Second,
		},
		Email: EmailConfig{
			Enabled: true, Host: "smtp.mailersend.net", Port: 587,
			FromName: "Drone Delivery Service",
		},
		MailerSend: MailerSendConfig{APIURL: "https://api.mailersend.com/v1/email"},
		Notification: NotificationConfig{
			DeadLetterOnFailure: true,
			ContactCacheSize:    1024,
			ContactCacheTTL:     5 * time.Minute,
			ReconnectMin:        time.Second,
			ReconnectMax:        30 * time.Second,
		},
	}
}

// Load: defaults -> YAML (если path не пуст) -> переменные окружения.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// файл необязателен
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	sections := []struct {
		prefix string
		target any
	}{
		{"HTTP", &cfg.HTTP},
		{"LOG", &cfg.Log},
		{"RABBITMQ", &cfg.RabbitMQ},
		{"DATABASE", &cfg.Database},
		{"SERVICES", &cfg.Services},
		{"EMAIL", &cfg.Email},
		{"MAILERSEND", &cfg.MailerSend},
		{"NOTIFICATION", &cfg.Notification},
		{"WORKFLOW", &cfg.Workflow},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return Config{}, fmt.Errorf("env %s_*: %w", s.prefix, err)
		}
	}

	// старое имя переключателя из docker-compose
	if v, ok := os.LookupEnv("USE_MAILERSEND_API"); ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("env USE_MAILERSEND_API: %w", err)
		}
		cfg.MailerSend.Enabled = on
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RabbitMQ.Host == "" || c.RabbitMQ.Queue == "" {
		return errors.New("rabbitmq config incomplete: host and queue are required")
	}
	// consumer обрабатывает сообщения строго по одному
	if c.RabbitMQ.Prefetch != 1 {
		return fmt.Errorf("rabbitmq prefetch must be 1, got %d", c.RabbitMQ.Prefetch)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "", "sqlite":
	case "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
			return errors.New("database config incomplete")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Services.CallTimeout <= 0 || c.Services.RequestTimeout <= 0 {
		return errors.New("service timeouts must be positive")
	}
	return nil
}

// String не печатает секреты.
func (c Config) String() string {
	return fmt.Sprintf(
		"rabbitmq=%s:%d/%s queue=%s user=%s password=%s db=%s email=%t smtp=%s:%d smtp_password=%s mailersend=%t api_key=%s strict=%t",
		c.RabbitMQ.Host, c.RabbitMQ.Port, strings.TrimPrefix(c.RabbitMQ.VHost, "/"), c.RabbitMQ.Queue,
		c.RabbitMQ.User, mask(c.RabbitMQ.Password), c.Database.Driver,
		c.Email.Enabled, c.Email.Host, c.Email.Port, mask(c.Email.Password),
		c.MailerSend.Enabled, mask(c.MailerSend.APIKey), c.Workflow.StrictTransitions,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
