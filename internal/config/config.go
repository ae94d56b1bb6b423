package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Storage  StorageConfig  `mapstructure:"storage"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

func (c AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	OTPRateLimit    float64       `mapstructure:"otp_rate_limit"`
	OTPRateBurst    int           `mapstructure:"otp_rate_burst"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	PoolSize int           `mapstructure:"pool_size"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
	AccessExpire  string `mapstructure:"access_expire"`
	RefreshExpire string `mapstructure:"refresh_expire"`
	Issuer        string `mapstructure:"issuer"`
}

func (c JWTConfig) AccessTTL() (time.Duration, error) {
	return ParseDuration(c.AccessExpire)
}

func (c JWTConfig) RefreshTTL() (time.Duration, error) {
	return ParseDuration(c.RefreshExpire)
}

type OTPConfig struct {
	TestMode           bool          `mapstructure:"test_mode"`
	FixedCode          string        `mapstructure:"fixed_code"`
	TTL                time.Duration `mapstructure:"ttl"`
	DefaultCountryCode string        `mapstructure:"default_country_code"`
	// Store is "memory" or "redis".
	Store      string `mapstructure:"store"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type TwilioConfig struct {
	AccountSID  string        `mapstructure:"account_sid"`
	AuthToken   string        `mapstructure:"auth_token"`
	PhoneNumber string        `mapstructure:"phone_number"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.PhoneNumber != ""
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type StorageConfig struct {
	Dir         string `mapstructure:"dir"`
	BaseURL     string `mapstructure:"base_url"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type CORSConfig struct {
	ClientURL string `mapstructure:"client_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// envOverrides are the conventional variable names operators already use.
// They take precedence over the config file.
type envOverrides struct {
	AppEnv            string `envconfig:"APP_ENV"`
	Port              int    `envconfig:"PORT"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	RedisURL          string `envconfig:"REDIS_URL"`
	JWTSecret         string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret  string `envconfig:"JWT_REFRESH_SECRET"`
	JWTAccessExpire   string `envconfig:"JWT_ACCESS_EXPIRE"`
	JWTRefreshExpire  string `envconfig:"JWT_REFRESH_EXPIRE"`
	ClientURL         string `envconfig:"CLIENT_URL"`
	OTPTestMode       string `envconfig:"OTP_TEST_MODE"`
	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER"`
	SMTPHost          string `envconfig:"SMTP_HOST"`
	SMTPPort          int    `envconfig:"SMTP_PORT"`
	SMTPUsername      string `envconfig:"SMTP_USERNAME"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom          string `envconfig:"SMTP_FROM"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "jevencare")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.otp_rate_limit", 0.2)
	v.SetDefault("server.otp_rate_burst", 5)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.lock_ttl", 5*time.Second)

	v.SetDefault("jwt.access_expire", "15m")
	v.SetDefault("jwt.refresh_expire", "7d")
	v.SetDefault("jwt.issuer", "jevencare")

	v.SetDefault("otp.fixed_code", "123456")
	v.SetDefault("otp.ttl", 10*time.Minute)
	v.SetDefault("otp.default_country_code", "+91")
	v.SetDefault("otp.store", "memory")
	v.SetDefault("otp.bcrypt_cost", 10)

	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.timeout", 10*time.Second)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("storage.dir", "./uploads")
	v.SetDefault("storage.base_url", "/files")
	v.SetDefault("storage.max_file_size", 10<<20)

	v.SetDefault("cors.client_url", "http://localhost:3000")

	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.namespace", "jevencare")
}

// LoadConfig reads config.yaml (optional), then .env, then the environment.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	// Test mode follows the environment unless set explicitly.
	testModeSet := v.IsSet("otp.test_mode")
	if err := cfg.apply(env, testModeSet); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) apply(env envOverrides, testModeSet bool) error {
	setString(&c.App.Env, env.AppEnv)
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	setString(&c.Database.URL, env.DatabaseURL)
	setString(&c.Redis.URL, env.RedisURL)
	setString(&c.JWT.Secret, env.JWTSecret)
	setString(&c.JWT.RefreshSecret, env.JWTRefreshSecret)
	setString(&c.JWT.AccessExpire, env.JWTAccessExpire)
	setString(&c.JWT.RefreshExpire, env.JWTRefreshExpire)
	setString(&c.CORS.ClientURL, env.ClientURL)
	setString(&c.Twilio.AccountSID, env.TwilioAccountSID)
	setString(&c.Twilio.AuthToken, env.TwilioAuthToken)
	setString(&c.Twilio.PhoneNumber, env.TwilioPhoneNumber)
	setString(&c.SMTP.Host, env.SMTPHost)
	if env.SMTPPort != 0 {
		c.SMTP.Port = env.SMTPPort
	}
	setString(&c.SMTP.Username, env.SMTPUsername)
	setString(&c.SMTP.Password, env.SMTPPassword)
	setString(&c.SMTP.From, env.SMTPFrom)

	switch {
	case env.OTPTestMode != "":
		on, err := strconv.ParseBool(env.OTPTestMode)
		if err != nil {
			return fmt.Errorf("invalid OTP_TEST_MODE %q: %w", env.OTPTestMode, err)
		}
		c.OTP.TestMode = on
	case !testModeSet:
		c.OTP.TestMode = !c.App.IsProduction()
	}
	return nil
}

// Validate checks the settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt secret and refresh secret are required")
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("jwt secret and refresh secret must differ")
	}
	if _, err := c.JWT.AccessTTL(); err != nil {
		return fmt.Errorf("invalid jwt access expiry: %w", err)
	}
	if _, err := c.JWT.RefreshTTL(); err != nil {
		return fmt.Errorf("invalid jwt refresh expiry: %w", err)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.OTP.Store {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.New("redis url is required for the redis otp store")
		}
	default:
		return fmt.Errorf("unsupported otp store %q", c.OTP.Store)
	}

	if c.OTP.TestMode && c.App.IsProduction() {
		return errors.New("otp test mode cannot be enabled in production")
	}
	if !c.OTP.TestMode && !c.Twilio.Enabled() {
		return errors.New("twilio credentials are required when otp test mode is off")
	}
	return nil
}

// ParseDuration accepts time.ParseDuration input plus a whole-day suffix, e.g. "7d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
