package config

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// Config carries the runtime settings. Everything comes from the
// environment; main loads .env first via godotenv.
type Config struct {
	DatabaseURL string
	HTTPPort    string

	// OrderDelay is the artificial delay used by throttle chaos and by the
	// oven-full rejection path. Long enough to trip typical client timeouts.
	OrderDelay time.Duration

	PrivateKeyFile string
	PublicKeyFile  string

	// FactoryURL is the externally reachable base used to build report URLs.
	FactoryURL string

	EmailMode string // "ses" or "log"
	EmailFrom string
	AWSRegion string

	AdminID string
	// AdminAPIKey seeds the default admin's credential. Optional; a random
	// one is generated (and printed once) when unset.
	AdminAPIKey string
	AdminName   string
}

func Load(lg *zap.SugaredLogger) Config {
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HTTPPort:       envOr("HTTP_PORT", "8080"),
		OrderDelay:     32 * time.Second,
		PrivateKeyFile: envOr("JWT_KEY_FILE", "jwt.key"),
		PublicKeyFile:  envOr("JWT_PUBLIC_KEY_FILE", "jwt.key.pub"),
		EmailMode:      envOr("EMAIL_MODE", "log"),
		EmailFrom:      envOr("EMAIL_FROM", "noreply@cs329.click"),
		AWSRegion:      envOr("AWS_REGION", "us-east-1"),
		AdminID:        os.Getenv("ADMIN_ID"),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),
		AdminName:      envOr("ADMIN_NAME", "factory admin"),
	}
	cfg.FactoryURL = envOr("FACTORY_URL", "http://localhost:"+cfg.HTTPPort)
	if s := os.Getenv("ORDER_DELAY"); s != "" {
		if d, err := time.ParseDuration(s); err != nil {
			lg.Warnw("unparseable ORDER_DELAY, using default", "value", s, "default", cfg.OrderDelay.String())
		} else {
			cfg.OrderDelay = d
		}
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
