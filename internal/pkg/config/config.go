package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB              DB            `yaml:"db"`
	Redis           Redis         `yaml:"redis"`
	Web             Web           `yaml:"web"`
	Storage         Storage       `yaml:"storage"`
	Face            Face          `yaml:"face"`
	Notification    Notification  `yaml:"notification"`
	JWTKey          string        `yaml:"jwt_key" conf:"noprint"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	DefaultTimezone string        `yaml:"default_timezone"`
	Debug           bool          `yaml:"debug"`
}

type DB struct {
	Username   string `yaml:"db_username"`
	Password   string `yaml:"db_password" conf:"noprint"`
	Host       string `yaml:"db_host"`
	Port       string `yaml:"port"`
	Name       string `yaml:"db_name"`
	DisableTLS bool   `yaml:"disable_tls"`
	Debug      bool   `yaml:"debug"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password" conf:"noprint"`
	DB       int    `yaml:"db"`
}

type Web struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type Storage struct {
	Dir     string `yaml:"dir"`
	URLPath string `yaml:"url_path"`
}

type Face struct {
	EmbedURL string        `yaml:"embed_url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Notification struct {
	Enabled       bool          `yaml:"enabled"`
	WhatsAppURL   string        `yaml:"whatsapp_url"`
	Token         string        `yaml:"token" conf:"noprint"`
	DefaultLocale string        `yaml:"default_locale"`
	Timeout       time.Duration `yaml:"timeout"`
}

// NewConfig reads the YAML file at path. A missing file is not an error so
// the service can be configured purely from the environment; call Validate
// once every source has been applied.
func NewConfig(path string) (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &c, nil
		}
		return nil, err
	}

	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// SetDefaults fills every zero valued setting that has a sensible default.
func (c *Config) SetDefaults() {
	if c.DB.Port == "" {
		c.DB.Port = "5432"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Web.Port == "" {
		c.Web.Port = ":8080"
	}
	if c.Web.ReadTimeout == 0 {
		c.Web.ReadTimeout = 10 * time.Second
	}
	if c.Web.WriteTimeout == 0 {
		c.Web.WriteTimeout = 30 * time.Second
	}
	if c.Web.ShutdownTimeout == 0 {
		c.Web.ShutdownTimeout = 20 * time.Second
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "statics"
	}
	if c.Storage.URLPath == "" {
		c.Storage.URLPath = "/statics"
	}
	if c.Face.Timeout == 0 {
		c.Face.Timeout = 10 * time.Second
	}
	if c.Notification.DefaultLocale == "" {
		c.Notification.DefaultLocale = "en"
	}
	if c.Notification.Timeout == 0 {
		c.Notification.Timeout = 5 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "UTC"
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DB.Username == "" || c.DB.Password == "" || c.DB.Host == "" || c.DB.Name == "" {
		return errors.New("missing required database configuration")
	}
	if c.JWTKey == "" {
		return errors.New("missing jwt_key")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return errors.New("invalid default_timezone")
	}
	return nil
}
