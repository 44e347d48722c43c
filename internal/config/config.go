package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Security     SecurityConfig
	Tenancy      TenancyConfig
	OAuth        OAuthConfig
	Holiday      HolidayConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
	CORS         CORSConfig
	Server       ServerConfig
}

type AppConfig struct {
	Env   string
	Port  int
	Name  string
	Debug bool
}

type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnectionLifetime time.Duration
}

type RedisConfig struct {
	URL        string
	Password   string
	MaxRetries int
	PoolSize   int
}

type SecurityConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	RefreshExpiry time.Duration
	// IntentSecret signs the short-lived OAuth intent token carried across
	// the external redirect.
	IntentSecret string
	IntentExpiry time.Duration
}

// TenancyConfig controls how the active tenant is resolved from a request.
type TenancyConfig struct {
	// SlugMode is "path" or "subdomain".
	SlugMode      string
	PrimaryDomain string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectBaseURL    string
}

type HolidayConfig struct {
	EndpointURL string
	PageSize    int
	CacheTTL    time.Duration
	MaxRetries  int
	HTTPTimeout time.Duration
}

type NotificationConfig struct {
	// DigestWeekOffset is subtracted from the current ISO week to pick the
	// digest target week; 1 means "previous week".
	DigestWeekOffset int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	MaxHeaderBytes int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config

	config.App = AppConfig{
		Env:   viper.GetString("APP_ENV"),
		Port:  viper.GetInt("APP_PORT"),
		Name:  viper.GetString("APP_NAME"),
		Debug: viper.GetBool("APP_DEBUG"),
	}

	config.Database = DatabaseConfig{
		URL:                viper.GetString("DATABASE_URL"),
		MaxConnections:     viper.GetInt("DB_MAX_CONNECTIONS"),
		MaxIdleConnections: viper.GetInt("DB_MAX_IDLE_CONNECTIONS"),
		ConnectionLifetime: time.Duration(viper.GetInt("DB_CONNECTION_LIFETIME_SECONDS")) * time.Second,
	}

	config.Redis = RedisConfig{
		URL:        viper.GetString("REDIS_URL"),
		Password:   viper.GetString("REDIS_PASSWORD"),
		MaxRetries: viper.GetInt("REDIS_MAX_RETRIES"),
		PoolSize:   viper.GetInt("REDIS_POOL_SIZE"),
	}

	config.Security = SecurityConfig{
		JWTSecret:     viper.GetString("JWT_SECRET"),
		JWTExpiry:     time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		RefreshExpiry: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_DAYS")) * 24 * time.Hour,
		IntentSecret:  viper.GetString("OAUTH_INTENT_SECRET"),
		IntentExpiry:  time.Duration(viper.GetInt("OAUTH_INTENT_EXPIRY_MINUTES")) * time.Minute,
	}

	config.Tenancy = TenancyConfig{
		SlugMode:      viper.GetString("TENANT_SLUG_MODE"),
		PrimaryDomain: viper.GetString("TENANT_PRIMARY_DOMAIN"),
	}

	config.OAuth = OAuthConfig{
		GoogleClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
		RedirectBaseURL:    viper.GetString("OAUTH_REDIRECT_BASE_URL"),
	}

	config.Holiday = HolidayConfig{
		EndpointURL: viper.GetString("HOLIDAY_ENDPOINT_URL"),
		PageSize:    viper.GetInt("HOLIDAY_PAGE_SIZE"),
		CacheTTL:    time.Duration(viper.GetInt("HOLIDAY_CACHE_TTL_HOURS")) * time.Hour,
		MaxRetries:  viper.GetInt("HOLIDAY_MAX_RETRIES"),
		HTTPTimeout: time.Duration(viper.GetInt("HOLIDAY_HTTP_TIMEOUT_SECONDS")) * time.Second,
	}

	config.Notification = NotificationConfig{
		DigestWeekOffset: viper.GetInt("DIGEST_WEEK_OFFSET"),
	}

	config.RateLimit = RateLimitConfig{
		Enabled:           viper.GetBool("RATE_LIMIT_ENABLED"),
		RequestsPerMinute: viper.GetInt("RATE_LIMIT_REQUESTS_PER_MINUTE"),
		Burst:             viper.GetInt("RATE_LIMIT_BURST"),
	}

	config.Log = LogConfig{
		Level:  viper.GetString("LOG_LEVEL"),
		Format: viper.GetString("LOG_FORMAT"),
		Output: viper.GetString("LOG_OUTPUT"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
		AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		ExposeHeaders:    viper.GetStringSlice("CORS_EXPOSE_HEADERS"),
		AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
		MaxAge:           viper.GetInt("CORS_MAX_AGE"),
	}

	config.Server = ServerConfig{
		ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT_SECONDS"),
		WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT_SECONDS"),
		IdleTimeout:    viper.GetInt("SERVER_IDLE_TIMEOUT_SECONDS"),
		MaxHeaderBytes: viper.GetInt("SERVER_MAX_HEADER_BYTES"),
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_NAME", "weekly-report-api")
	viper.SetDefault("APP_DEBUG", false)

	viper.SetDefault("DB_MAX_CONNECTIONS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNECTIONS", 10)
	viper.SetDefault("DB_CONNECTION_LIFETIME_SECONDS", 300)

	viper.SetDefault("REDIS_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)

	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_DAYS", 7)
	viper.SetDefault("OAUTH_INTENT_EXPIRY_MINUTES", 10)

	viper.SetDefault("TENANT_SLUG_MODE", "path")
	viper.SetDefault("TENANT_PRIMARY_DOMAIN", "weeklyreport.local")

	viper.SetDefault("HOLIDAY_ENDPOINT_URL", "https://data.ntpc.gov.tw/api/datasets/308dcd75-6434-45bc-a95f-584da4fed251/json")
	viper.SetDefault("HOLIDAY_PAGE_SIZE", 500)
	viper.SetDefault("HOLIDAY_CACHE_TTL_HOURS", 24)
	viper.SetDefault("HOLIDAY_MAX_RETRIES", 3)
	viper.SetDefault("HOLIDAY_HTTP_TIMEOUT_SECONDS", 30)

	viper.SetDefault("DIGEST_WEEK_OFFSET", 1)

	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", 120)
	viper.SetDefault("RATE_LIMIT_BURST", 20)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_OUTPUT", "stdout")

	viper.SetDefault("CORS_MAX_AGE", 300)

	viper.SetDefault("SERVER_READ_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SERVER_IDLE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("SERVER_MAX_HEADER_BYTES", 1048576)
}
