// internal/config/config.go
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Blockchain  BlockchainConfig
	Payment     PaymentConfig
	API         APIConfig
	Storage     StorageConfig
	Gate        GateConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type ServerConfig struct {
	Port         string `env:"SERVER_PORT" envDefault:"8080"`
	Host         string `env:"SERVER_HOST" envDefault:"localhost"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT" envDefault:"15"`
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
	IdleTimeout  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Database     string `env:"DB_NAME" envDefault:"audio_copyright"`
	SSLMode      string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	MaxLifetime  int    `env:"DB_MAX_LIFETIME" envDefault:"300"`
	LogLevel     string `env:"DB_LOG_LEVEL" envDefault:"silent"`
}

type JWTConfig struct {
	// Empty means credentials are decoded without verifying the signature.
	SecretKey string `env:"JWT_SECRET"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket        string `env:"AWS_S3_BUCKET" envDefault:"audio-copyright-certificates"`
	CloudFrontURL   string `env:"AWS_CLOUDFRONT_URL"`
}

type BlockchainConfig struct {
	// Network "simulated" enables the in-process chain; anything else leaves
	// the wallet provider unavailable.
	Network         string        `env:"BLOCKCHAIN_NETWORK" envDefault:"simulated"`
	ContractAddress string        `env:"BLOCKCHAIN_CONTRACT_ADDRESS"`
	AccountAddress  string        `env:"BLOCKCHAIN_ACCOUNT_ADDRESS" envDefault:"0x00000000000000000000000000000000000a11ce"`
	ConfirmTimeout  time.Duration `env:"PUBLISH_CONFIRM_TIMEOUT" envDefault:"2m"`
}

type PaymentConfig struct {
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	Currency        string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

type StorageConfig struct {
	Backend   string `env:"STORAGE_BACKEND" envDefault:"memory"`
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"acg:"`
}

type GateConfig struct {
	DefaultAdminHome          string `env:"DEFAULT_ADMIN_HOME" envDefault:"/admin"`
	ArtistVerificationPrefix  string `env:"ARTIST_VERIFICATION_PREFIX" envDefault:"artist-verification-"`
	ExcludeArtistVerification bool   `env:"EXCLUDE_ARTIST_VERIFICATION" envDefault:"true"`
}

type I18nConfig struct {
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return config, config.Validate()
}

var contractAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Environment == "production" {
		if c.JWT.SecretKey == "" || c.JWT.SecretKey == defaultJWTSecret {
			return fmt.Errorf("JWT secret key must be set in production")
		}
		if c.Storage.Backend == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
	}

	if c.Blockchain.ContractAddress != "" && !contractAddressPattern.MatchString(c.Blockchain.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", c.Blockchain.ContractAddress)
	}

	if c.Blockchain.ConfirmTimeout <= 0 {
		return fmt.Errorf("publish confirm timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
