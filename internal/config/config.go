package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// InsecureDefaultSecret is used when no shared secret is configured.
// Any token signed with it must be considered forgeable.
const InsecureDefaultSecret = "change-in-production"

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Bridge: servicio externo que hace el handshake OAuth real.
	Bridge struct {
		BaseURL      string        `yaml:"base_url"`
		SharedSecret string        `yaml:"shared_secret"`
		Timeout      time.Duration `yaml:"timeout"` // cliente HTTP (civic actions)
	} `yaml:"bridge"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Domain     string `yaml:"domain"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Routes struct {
		Prefix      string `yaml:"prefix"`
		SigninPath  string `yaml:"signin_path"`
		WelcomePath string `yaml:"welcome_path"`
		HomePath    string `yaml:"home_path"`
	} `yaml:"routes"`

	Store struct {
		Driver  string        `yaml:"driver"` // memory | postgres
		DSN     string        `yaml:"dsn"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"store"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Driver      string        `yaml:"driver"` // memory | redis
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
		Redis       struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		TLSMode  string `yaml:"tls_mode"` // auto | starttls | ssl | none
		SiteName string `yaml:"site_name"`
	} `yaml:"smtp"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Load lee el YAML en path (si existe), aplica overrides de entorno y defaults.
// Un path vacío o inexistente no es error: se usa solo el entorno.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	applyEnv(&c, os.Getenv)
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnv pisa los valores del YAML con variables de entorno.
func applyEnv(c *Config, getenv func(string) string) {
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(dst *bool, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(dst *int, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str(&c.App.Env, "APP_ENV")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Server.Addr, "SERVER_ADDR")

	str(&c.Bridge.BaseURL, "BRIDGE_URL")
	str(&c.Bridge.SharedSecret, "SHARED_JWT_SECRET")
	duration(&c.Bridge.Timeout, "BRIDGE_TIMEOUT")

	str(&c.Session.CookieName, "SESSION_COOKIE_NAME")
	str(&c.Session.Domain, "SESSION_COOKIE_DOMAIN")
	boolean(&c.Session.Secure, "SESSION_COOKIE_SECURE")

	str(&c.Store.Driver, "STORE_DRIVER")
	str(&c.Store.DSN, "DATABASE_DSN")
	duration(&c.Store.Timeout, "STORE_TIMEOUT")

	boolean(&c.Rate.Enabled, "RATE_ENABLED")
	str(&c.Rate.Driver, "RATE_DRIVER")
	str(&c.Rate.Redis.Addr, "REDIS_ADDR")
	str(&c.Rate.Redis.Password, "REDIS_PASSWORD")

	str(&c.SMTP.Host, "SMTP_HOST")
	integer(&c.SMTP.Port, "SMTP_PORT")
	str(&c.SMTP.Username, "SMTP_USERNAME")
	str(&c.SMTP.Password, "SMTP_PASSWORD")
	str(&c.SMTP.From, "SMTP_FROM")
	str(&c.SMTP.TLSMode, "SMTP_TLS_MODE")
	str(&c.SMTP.SiteName, "SITE_NAME")

	boolean(&c.Metrics.Enabled, "METRICS_ENABLED")
}

func applyDefaults(c *Config) {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Bridge.BaseURL == "" {
		c.Bridge.BaseURL = "http://127.0.0.1:5000"
	}
	c.Bridge.BaseURL = strings.TrimRight(c.Bridge.BaseURL, "/")
	if c.Bridge.SharedSecret == "" {
		c.Bridge.SharedSecret = InsecureDefaultSecret
	}
	if c.Bridge.Timeout == 0 {
		c.Bridge.Timeout = 5 * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "ghost-members-ssr"
	}
	if c.Routes.Prefix == "" {
		c.Routes.Prefix = "/members/api/oauth"
	}
	if c.Routes.SigninPath == "" {
		c.Routes.SigninPath = "/signin"
	}
	if c.Routes.WelcomePath == "" {
		c.Routes.WelcomePath = "/oauth-welcome"
	}
	if c.Routes.HomePath == "" {
		c.Routes.HomePath = "/"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = 5 * time.Second
	}
	if c.Rate.Driver == "" {
		c.Rate.Driver = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "rl:oauth:"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
}

// Validate revisa combinaciones inválidas. El secreto inseguro solo es fatal en prod.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("config: store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	switch c.Rate.Driver {
	case "memory":
	case "redis":
		if c.Rate.Enabled && strings.TrimSpace(c.Rate.Redis.Addr) == "" {
			return errors.New("config: rate.redis.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config: unknown rate.driver %q", c.Rate.Driver)
	}
	if c.IsProd() && c.InsecureSecret() {
		return errors.New("config: bridge.shared_secret must be set in prod (SHARED_JWT_SECRET)")
	}
	return nil
}

// InsecureSecret reporta si se está usando el secreto por defecto.
func (c *Config) InsecureSecret() bool {
	return c.Bridge.SharedSecret == InsecureDefaultSecret
}

func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}
