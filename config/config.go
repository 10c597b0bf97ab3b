package config

import (
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// Config is the process configuration, built once at startup and injected
// into every component that needs it. Nothing reads the environment after
// Load returns.
type Config struct {
	Port    string
	Debug   bool
	BaseURL string

	SigningKey string
	Issuer     string
	Audience   []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	InvitationTTL   time.Duration
	SessionCap      int

	AuthCookieName    string
	RefreshCookieName string
	SecureCookies     bool

	DatabaseDSN string

	S3Bucket      string
	S3Region      string
	S3SignExpires time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads the environment into a Config. The signing key is the only
// hard requirement.
func Load() (*Config, error) {
	cfg := &Config{
		Port:    envOr("PORT", "3000"),
		Debug:   envBool("DEBUG", false),
		BaseURL: envOr("APP_BASE_URL", "http://localhost:3000"),

		SigningKey: os.Getenv("JWT_SECRET"),
		Issuer:     envOr("JWT_ISSUER", "thrillway"),

		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		InvitationTTL:   envDuration("INVITATION_TTL", 24*time.Hour),
		SessionCap:      envInt("SESSION_CAP", 5),

		AuthCookieName:    envOr("AUTH_COOKIE_NAME", "auth_token"),
		RefreshCookieName: envOr("REFRESH_COOKIE_NAME", "refresh_token"),
		SecureCookies:     envBool("SECURE_COOKIES", envOr("APP_ENV", "development") == "production"),

		DatabaseDSN: envOr("DATABASE_DSN", "file:thrillway.db?cache=shared&mode=rwc"),

		S3Bucket:      envOr("S3_BUCKET", "thrillway-bucket"),
		S3Region:      envOr("S3_REGION", "eu-north-1"),
		S3SignExpires: envDuration("S3_SIGN_EXPIRES", 60*time.Second),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if aud := os.Getenv("JWT_AUDIENCE"); aud != "" {
		cfg.Audience = []string{aud}
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET is required", errors.CategoryOperation)
	}

	return cfg, nil
}

func (c *Config) GetSigningKey() string             { return c.SigningKey }
func (c *Config) GetIssuer() string                 { return c.Issuer }
func (c *Config) GetAudience() []string             { return c.Audience }
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c *Config) GetInvitationTTL() time.Duration   { return c.InvitationTTL }
func (c *Config) GetSessionCap() int                { return c.SessionCap }
func (c *Config) GetAuthCookieName() string         { return c.AuthCookieName }
func (c *Config) GetRefreshCookieName() string      { return c.RefreshCookieName }
func (c *Config) GetSecureCookies() bool            { return c.SecureCookies }
func (c *Config) GetAppBaseURL() string             { return c.BaseURL }
func (c *Config) GetDebug() bool                    { return c.Debug }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
