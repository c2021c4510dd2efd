package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string
	HTTPPort            string
	DatabaseURL         string
	StripeSecretKey     string
	StripeWebhookSecret string
	LedgerURL           string
	FrontendURL         string
	PricePerTokenCents  int64
	JWTSecret           string
	JWTIssuer           string
	RateRPS             int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:                 get("APP_ENV", "dev"),
		HTTPPort:            get("HTTP_PORT", "8080"),
		DatabaseURL:         get("DATABASE_URL", ""),
		StripeSecretKey:     get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: get("STRIPE_WEBHOOK_SECRET", ""),
		LedgerURL:           get("LEDGER_URL", "http://localhost:5000"),
		FrontendURL:         get("FRONTEND_URL", "http://localhost:3000"),
		PricePerTokenCents:  getInt64("PRICE_PER_TOKEN_CENTS", 100),
		JWTSecret:           get("JWT_SECRET", "changeme-secret"),
		JWTIssuer:           get("JWT_ISSUER", "tokenpay-backend"),
		RateRPS:             int(getInt64("RATE_RPS", 100)),
	}
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
