package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Stripe     StripeConfig
	Token      TokenConfig
	SMTP       SMTPConfig
	CloudFront CloudFrontConfig
	App        AppConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	SessionTTL time.Duration
	AdminTTL   time.Duration
}

// SMTPConfig is optional: with an empty Host the purchase-confirmation
// mailer is disabled and webhook processing proceeds without email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CloudFrontConfig is optional: with an empty KeyPairID stream URLs are
// returned unsigned.
type CloudFrontConfig struct {
	KeyPairID  string
	PrivateKey string
}

type AppConfig struct {
	PublicURL string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPortStr := os.Getenv("POSTGRES_PORT")
	if postgresPortStr == "" {
		postgresPortStr = "5432"
	}

	postgresPort, err := strconv.Atoi(postgresPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return nil, fmt.Errorf("%s: missing STRIPE_SECRET_KEY", op)
	}

	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("%s: missing STRIPE_WEBHOOK_SECRET", op)
	}

	stripeCfg := StripeConfig{
		SecretKey:     stripeKey,
		WebhookSecret: webhookSecret,
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, fmt.Errorf("%s: missing TOKEN_SECRET", op)
	}

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	sessionTTL, err := durationEnv("SESSION_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	adminTTL, err := durationEnv("ADMIN_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	tokenCfg := TokenConfig{
		Secret:     tokenSecret,
		AccessTTL:  accessTTL,
		SessionTTL: sessionTTL,
		AdminTTL:   adminTTL,
	}

	smtpPort := 587
	if s := os.Getenv("SMTP_PORT"); s != "" {
		smtpPort, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SMTP_PORT: %w", op, err)
		}
	}

	smtpCfg := SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}

	cloudfrontCfg := CloudFrontConfig{
		KeyPairID:  os.Getenv("CLOUDFRONT_KEY_PAIR_ID"),
		PrivateKey: os.Getenv("CLOUDFRONT_PRIVATE_KEY"),
	}

	appURL := os.Getenv("APP_PUBLIC_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	return &Config{
		Server:     serverCfg,
		Postgres:   postgresCfg,
		Redis:      redisCfg,
		Stripe:     stripeCfg,
		Token:      tokenCfg,
		SMTP:       smtpCfg,
		CloudFront: cloudfrontCfg,
		App:        AppConfig{PublicURL: appURL},
	}, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return d, nil
}
