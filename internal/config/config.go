package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"toolshub/internal/menu"
)

type Config struct {
	BaseURL string `yaml:"base_url"`

	HTTP struct {
		Address string `yaml:"address"`
	} `yaml:"http"`

	Database DatabaseConfig `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
		Format string `yaml:"format"` // "text" | "json"
	} `yaml:"logging"`

	Security struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"security"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		Secure     bool          `yaml:"secure"`
		TTL        time.Duration `yaml:"ttl"`
		// LoginAttempts per client IP per minute.
		LoginAttempts int `yaml:"login_attempts"`
	} `yaml:"session"`

	Header HeaderConfig `yaml:"header"`

	Telegram struct {
		BotToken   string   `yaml:"bot_token"`
		AdminChats []string `yaml:"admin_chats"`
	} `yaml:"telegram"`
}

type HeaderConfig struct {
	menu.Config         `yaml:",inline"`
	SessionCheckTimeout time.Duration `yaml:"session_check_timeout"`
	// StreamKeepAlive is the interval of comment frames on the live header
	// stream.
	StreamKeepAlive time.Duration `yaml:"stream_keepalive"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"` // e.g. "disable" | "require"
	MaxConns int32  `yaml:"max_conns"`
}

func (c *Config) Defaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.Host == "" {
		c.Database.Host = "db"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "toolshub"
	}
	if c.Database.Name == "" {
		c.Database.Name = "toolshub"
	}
	if c.Database.Password == "" {
		c.Database.Password = "password"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Security.JWTSecret == "" {
		c.Security.JWTSecret = "change-me"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 72 * time.Hour
	}
	if c.Session.LoginAttempts == 0 {
		c.Session.LoginAttempts = 10
	}
	c.Header.Config.Defaults()
	if c.Header.SessionCheckTimeout == 0 {
		c.Header.SessionCheckTimeout = 3 * time.Second
	}
	if c.Header.StreamKeepAlive == 0 {
		c.Header.StreamKeepAlive = 25 * time.Second
	}
}

func (c *Config) Validate() error {
	var errs []error
	// DB must have either URL or (Host, User, Name)
	if c.Database.URL == "" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.url or database.{host,user,name} must be set"))
		}
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Header.SessionCheckTimeout < 0 {
		errs = append(errs, errors.New("header.session_check_timeout must be positive"))
	}
	if err := c.Header.Config.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("header: %w", err))
	}
	return errors.Join(errs...)
}

// AppURL returns a postgres connection URL for the application DB.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AdminURL points at the maintenance database on the same cluster, used
// to create the application database on first start.
func (d *DatabaseConfig) AdminURL() (string, error) {
	app, err := d.AppURL()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(app)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	u.Path = "/postgres"
	return u.String(), nil
}
