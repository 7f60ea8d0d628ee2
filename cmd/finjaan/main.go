package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/finjaanapp/finjaan/internal/backup"
	"github.com/finjaanapp/finjaan/internal/database"
	"github.com/finjaanapp/finjaan/internal/invoice"
	"github.com/finjaanapp/finjaan/internal/logging"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/payment"
	"github.com/finjaanapp/finjaan/internal/push"
	"github.com/finjaanapp/finjaan/internal/server"
	"github.com/finjaanapp/finjaan/internal/store"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(env("FINJAAN_LOG_LEVEL", "info"), env("FINJAAN_LOG_FORMAT", "text"))

	port := env("FINJAAN_PORT", "8080")
	dbPath := env("FINJAAN_DB_PATH", "finjaan.db")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		CardTokenSecret: env("FINJAAN_CARD_SECRET", "dev-only-card-secret"),
		CardIssuer:      env("FINJAAN_CARD_ISSUER", "finjaan"),
		Seller: invoice.Seller{
			Name:      env("FINJAAN_SELLER_NAME", "Finjaan Coffee"),
			VATNumber: os.Getenv("FINJAAN_SELLER_VAT"),
		},
		NotifyGateway: os.Getenv("FINJAAN_NOTIFY_URL"),
		NotifyAPIKey:  os.Getenv("FINJAAN_NOTIFY_KEY"),
		Payment: payment.Config{
			SecretKey: os.Getenv("FINJAAN_STRIPE_KEY"),
		},
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("FINJAAN_VAPID_PUBLIC"),
			VAPIDPrivateKey: os.Getenv("FINJAAN_VAPID_PRIVATE"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:        os.Getenv("FINJAAN_S3_ENDPOINT"),
				Region:          env("FINJAAN_S3_REGION", "auto"),
				Bucket:          os.Getenv("FINJAAN_S3_BUCKET"),
				AccessKeyID:     os.Getenv("FINJAAN_S3_ACCESS_KEY"),
				SecretAccessKey: os.Getenv("FINJAAN_S3_SECRET_KEY"),
			},
			Passphrase: os.Getenv("FINJAAN_BACKUP_PASSPHRASE"),
			DBPath:     dbPath,
			Interval:   24 * time.Hour,
		},
	}

	if err := bootstrapAdmin(db, logger); err != nil {
		log.Fatalf("failed to bootstrap admin: %v", err)
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Housekeeping loops: stale sessions and login-limiter buckets.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				srv.LoginLimiter().Cleanup()
			}
		}
	}()

	if mgr := srv.BackupManager(); mgr != nil {
		go mgr.Start(ctx)
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("finjaan listening", "port", port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// bootstrapAdmin creates the first admin account on an empty install so
// the console is reachable. Credentials come from the environment and
// default to admin@finjaan.local / change-me for local development.
func bootstrapAdmin(db *sql.DB, logger *slog.Logger) error {
	employees := store.NewEmployeeStore(db)

	existing, err := employees.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	email := env("FINJAAN_ADMIN_EMAIL", "admin@finjaan.local")
	password := env("FINJAAN_ADMIN_PASSWORD", "change-me")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := employees.Create(email, "Administrator", model.RoleAdmin, string(hash), nil); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", "email", email)
	return nil
}
