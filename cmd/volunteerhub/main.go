package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/backup"
	"github.com/volunteerhub/volunteerhub/internal/database"
	"github.com/volunteerhub/volunteerhub/internal/logging"
	"github.com/volunteerhub/volunteerhub/internal/push"
	"github.com/volunteerhub/volunteerhub/internal/server"
)

func main() {
	port := os.Getenv("VOLUNTEERHUB_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("VOLUNTEERHUB_DB_PATH")
	if dbPath == "" {
		dbPath = "volunteerhub.db"
	}

	logger := logging.Setup(os.Getenv("VOLUNTEERHUB_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("VOLUNTEERHUB_S3_ENDPOINT"),
			Bucket:    os.Getenv("VOLUNTEERHUB_S3_BUCKET"),
			Region:    os.Getenv("VOLUNTEERHUB_S3_REGION"),
			AccessKey: os.Getenv("VOLUNTEERHUB_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("VOLUNTEERHUB_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("VOLUNTEERHUB_BACKUP_PASSPHRASE"),
	}

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("VOLUNTEERHUB_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VOLUNTEERHUB_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mgr := srv.BackupManager(); mgr != nil {
		mgr.Start(ctx)
		defer mgr.Stop()
	}

	// Periodic housekeeping: expired sessions and stale rate limit buckets.
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
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("VolunteerHub running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
