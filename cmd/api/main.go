package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pizzafactory/internal/chaos"
	"pizzafactory/internal/config"
	"pizzafactory/internal/email"
	"pizzafactory/internal/httpserver"
	"pizzafactory/internal/keys"
	"pizzafactory/internal/logger"
	"pizzafactory/internal/models"
	"pizzafactory/internal/store"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()
	cfg := config.Load(lg)

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(&models.Role{}, &models.Vendor{}, &models.Chaos{}, &models.Connection{}, &models.AuthCode{}); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	s := store.New(db)
	seedDefaultAdmin(s, cfg, lg)

	// Key loading is synchronous and fatal on failure: nothing is served
	// before the pair is ready, so no request can ever sign with a nil key.
	ks, err := keys.Load(cfg.PrivateKeyFile, cfg.PublicKeyFile)
	if err != nil {
		lg.Fatalw("key load failed", "error", err)
	}

	var mail email.Sender
	if cfg.EmailMode == "ses" {
		mail, err = email.NewSESSender(cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			lg.Fatalw("ses init failed", "error", err)
		}
	} else {
		mail = &email.LogSender{Log: lg}
	}

	eng := chaos.NewEngine(s, cfg.OrderDelay, cfg.FactoryURL)
	router := httpserver.NewRouter(s, ks, eng, mail, lg)

	lg.Infow("listening", "port", cfg.HTTPPort, "orderDelay", cfg.OrderDelay.String())
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func seedDefaultAdmin(s store.Store, cfg config.Config, lg *zap.SugaredLogger) {
	if cfg.AdminID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.VendorByID(ctx, cfg.AdminID); err == nil {
		return
	}
	apiKey := cfg.AdminAPIKey
	generated := apiKey == ""
	if generated {
		apiKey = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	v := &models.Vendor{
		ID:     cfg.AdminID,
		APIKey: apiKey,
		Name:   cfg.AdminName,
	}
	if err := s.CreateVendor(ctx, v); err != nil {
		lg.Errorw("admin seed failed", "error", err)
		return
	}
	if err := s.AssignRole(ctx, v.ID, "admin", true); err != nil {
		lg.Errorw("admin role seed failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "id", cfg.AdminID)
	if generated {
		// The credential goes to stdout once, never through the log pipeline.
		fmt.Printf("admin apiKey for %s: %s\n", cfg.AdminID, apiKey)
	}
}
