package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/darby/hearth/internal/currency"
	"github.com/darby/hearth/internal/database"
	"github.com/darby/hearth/internal/email"
	"github.com/darby/hearth/internal/logging"
	"github.com/darby/hearth/internal/server"
)

const (
	sessionCleanupInterval    = 1 * time.Hour
	invitationCleanupInterval = 6 * time.Hour
	rateLimitCleanupInterval  = 5 * time.Minute
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"), os.Getenv("HEARTH_LOG_FORMAT"))

	port := env("HEARTH_PORT", "8080")
	dbPath := env("HEARTH_DB_PATH", "hearth.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ratesSvc := currency.NewService(env("HEARTH_BASE_CURRENCY", "USD"))

	emailClient := email.NewClient(
		os.Getenv("HEARTH_POSTMARK_TOKEN"),
		env("HEARTH_EMAIL_FROM", "hearth@localhost"),
		env("HEARTH_BASE_URL", "http://localhost:"+port),
	)
	if !emailClient.Configured() {
		logger.Warn("email not configured, invitation emails disabled")
	}

	srv := server.New(db, ratesSvc, emailClient, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Hearth running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(invitationCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.TeamStore().DeleteExpiredInvitations(); err != nil {
					logger.Error("invitation cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired invitations removed", "count", n)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(rateLimitCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Shutdown complete")
}
