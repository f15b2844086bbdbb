package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Google    GoogleConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Captcha   CaptchaConfig
	Cache     CacheConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Upstream  UpstreamConfig
}

// GoogleConfig carries the service-account fields used by the Sheets
// reader. The private key is the only truly sensitive field and must
// never be logged.
type GoogleConfig struct {
	SpreadsheetID       string
	SheetNames          []string
	ProjectID           string
	PrivateKeyID        string
	PrivateKey          string
	ClientEmail         string
	ClientID            string
	AuthURI             string
	TokenURI            string
	AuthProviderCertURL string
	ClientCertURL       string
}

type SessionConfig struct {
	Secret       string
	Lifetime     time.Duration
	CookieName   string
	SecureCookie bool
}

// RateLimitConfig holds fixed-window quotas. Per-endpoint windows are
// one minute; the global ceilings span one hour and one day.
type RateLimitConfig struct {
	SearchPerMinute          int
	BooksPerMinute           int
	CaptchaVerifyPerMinute   int
	CaptchaGeneratePerMinute int
	GlobalPerHour            int
	GlobalPerDay             int
}

type CaptchaConfig struct {
	Expiry      time.Duration
	MaxAttempts int
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig bounds calls to the Google Sheets API.
type UpstreamConfig struct {
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Google = GoogleConfig{
		SpreadsheetID:       strings.Trim(v.GetString("GOOGLE_SPREADSHEET_ID"), `"'`),
		SheetNames:          splitAndTrim(v.GetString("GOOGLE_SHEET_NAMES")),
		ProjectID:           v.GetString("GOOGLE_PROJECT_ID"),
		PrivateKeyID:        v.GetString("GOOGLE_PRIVATE_KEY_ID"),
		PrivateKey:          v.GetString("GOOGLE_PRIVATE_KEY"),
		ClientEmail:         v.GetString("GOOGLE_CLIENT_EMAIL"),
		ClientID:            v.GetString("GOOGLE_CLIENT_ID"),
		AuthURI:             v.GetString("GOOGLE_AUTH_URI"),
		TokenURI:            v.GetString("GOOGLE_TOKEN_URI"),
		AuthProviderCertURL: v.GetString("GOOGLE_AUTH_PROVIDER_CERT_URL"),
		ClientCertURL:       v.GetString("GOOGLE_CLIENT_CERT_URL"),
	}

	cfg.Session = SessionConfig{
		Secret:       v.GetString("SESSION_SECRET"),
		Lifetime:     parseDuration(v.GetString("SESSION_LIFETIME"), time.Hour),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		SecureCookie: v.GetBool("HTTPS_ENABLED"),
	}

	cfg.RateLimit = RateLimitConfig{
		SearchPerMinute:          v.GetInt("RATE_LIMIT_SEARCH_PER_MINUTE"),
		BooksPerMinute:           v.GetInt("RATE_LIMIT_BOOKS_PER_MINUTE"),
		CaptchaVerifyPerMinute:   v.GetInt("RATE_LIMIT_CAPTCHA_VERIFY_PER_MINUTE"),
		CaptchaGeneratePerMinute: v.GetInt("RATE_LIMIT_CAPTCHA_GENERATE_PER_MINUTE"),
		GlobalPerHour:            v.GetInt("RATE_LIMIT_GLOBAL_PER_HOUR"),
		GlobalPerDay:             v.GetInt("RATE_LIMIT_GLOBAL_PER_DAY"),
	}

	cfg.Captcha = CaptchaConfig{
		Expiry:      parseDuration(v.GetString("CAPTCHA_EXPIRY"), 15*time.Minute),
		MaxAttempts: v.GetInt("CAPTCHA_MAX_ATTEMPTS"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		Timeout: parseDuration(v.GetString("SHEETS_TIMEOUT"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SHEET_NAMES", "LIT. ADULTO,LIT. JUVENIL ADOLESCENTE,LIT. INFANTIL,EDUCACIÓN,MANUALES")
	v.SetDefault("GOOGLE_AUTH_URI", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_AUTH_PROVIDER_CERT_URL", "https://www.googleapis.com/oauth2/v1/certs")

	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_LIFETIME", "1h")
	v.SetDefault("SESSION_COOKIE_NAME", "catalog_session")
	v.SetDefault("HTTPS_ENABLED", false)

	v.SetDefault("RATE_LIMIT_SEARCH_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BOOKS_PER_MINUTE", 20)
	v.SetDefault("RATE_LIMIT_CAPTCHA_VERIFY_PER_MINUTE", 20)
	v.SetDefault("RATE_LIMIT_CAPTCHA_GENERATE_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_GLOBAL_PER_HOUR", 50)
	v.SetDefault("RATE_LIMIT_GLOBAL_PER_DAY", 200)

	v.SetDefault("CAPTCHA_EXPIRY", "15m")
	v.SetDefault("CAPTCHA_MAX_ATTEMPTS", 3)

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHEETS_TIMEOUT", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
