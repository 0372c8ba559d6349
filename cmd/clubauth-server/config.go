package main

import (
	"errors"
	"strings"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/oauth"
	"github.com/spf13/viper"
)

// serverConfig is the process configuration read from config.yaml and
// CLUB_* environment variables.
type serverConfig struct {
	Addr            string        `mapstructure:"addr"`
	Env             string        `mapstructure:"env"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	SessionSecret  string `mapstructure:"session_secret"`
	TrustedOrigin  string `mapstructure:"trusted_origin"`
	TrustForwarded bool   `mapstructure:"trust_forwarded"`
	AllowDebug2FA  bool   `mapstructure:"allow_debug_2fa"`
	OAuthBaseURL   string `mapstructure:"oauth_base_url"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	GoogleClientID       string `mapstructure:"google_client_id"`
	GoogleClientSecret   string `mapstructure:"google_client_secret"`
	FacebookClientID     string `mapstructure:"facebook_client_id"`
	FacebookClientSecret string `mapstructure:"facebook_client_secret"`

	AdminEmail     string `mapstructure:"admin_email"`
	AdminPassword  string `mapstructure:"admin_password"`
	MemberEmail    string `mapstructure:"member_email"`
	MemberPassword string `mapstructure:"member_password"`

	ResendAPIKey string `mapstructure:"resend_api_key"`
	ResendFrom   string `mapstructure:"resend_from"`
	MailPerHour  int    `mapstructure:"mail_per_hour"`
}

func (c serverConfig) production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func loadConfig() (serverConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/clubauth")

	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("trust_forwarded", true)
	v.SetDefault("allow_debug_2fa", false)
	v.SetDefault("redis_db", 0)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:clubauth.db?_pragma=busy_timeout(5000)")
	v.SetDefault("mail_per_hour", 5)

	// Defaults double as the key list AutomaticEnv can see during Unmarshal.
	for _, key := range []string{
		"session_secret", "trusted_origin", "oauth_base_url",
		"redis_addr", "redis_password",
		"google_client_id", "google_client_secret",
		"facebook_client_id", "facebook_client_secret",
		"admin_email", "admin_password", "member_email", "member_password",
		"resend_api_key", "resend_from",
	} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix("CLUB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return serverConfig{}, err
		}
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

// engineConfig maps process settings onto the engine configuration.
func (c serverConfig) engineConfig() clubAuth.Config {
	cfg := clubAuth.DefaultConfig()
	if c.production() {
		cfg = clubAuth.ProductionConfig()
	}
	cfg.Session.Secret = c.SessionSecret
	cfg.TwoFactor.AllowDebugCode = c.AllowDebug2FA && !c.production()
	cfg.Security.TrustedOrigin = c.TrustedOrigin
	cfg.Security.TrustForwardedHeaders = c.TrustForwarded
	cfg.OAuth.BaseURL = c.OAuthBaseURL
	cfg.OAuth.Google = oauth.Credentials{ClientID: c.GoogleClientID, ClientSecret: c.GoogleClientSecret}
	cfg.OAuth.Facebook = oauth.Credentials{ClientID: c.FacebookClientID, ClientSecret: c.FacebookClientSecret}
	return cfg
}
