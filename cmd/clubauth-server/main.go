// Command clubauth-server serves the club auth API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/accounts"
	"github.com/MrEthical07/clubAuth/internal/httpapi"
	promexport "github.com/MrEthical07/clubAuth/metrics/export/prometheus"
	"github.com/MrEthical07/clubAuth/notify"
	"github.com/MrEthical07/clubAuth/password"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	logger := newLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("LOG_JSON") == "1" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engineCfg := cfg.engineConfig()

	hasher, err := password.NewArgon2(engineCfg.Password)
	if err != nil {
		return err
	}

	store, err := accounts.Open(cfg.DBDriver, cfg.DBDSN, hasher)
	if err != nil {
		return err
	}
	defer store.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.Migrate(migrateCtx)
	cancel()
	if err != nil {
		return err
	}

	members := accounts.NewStaticVerifier(map[string]string{cfg.MemberEmail: cfg.MemberPassword})
	admins := accounts.NewStaticVerifier(map[string]string{cfg.AdminEmail: cfg.AdminPassword})

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}

	builder := clubAuth.New().
		WithConfig(engineCfg).
		WithLogger(logger).
		WithCredentialVerifier(firstMatch(members, store)).
		WithAccountRegistrar(store).
		WithCodeSender(sender)
	if admins.Configured() {
		builder = builder.WithAdminVerifier(admins)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	router := httpapi.New(engine, logger).Router()
	metricsHandler, err := promexport.Handler(promexport.NewCollector(engine))
	if err != nil {
		return err
	}
	router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSender picks Resend when configured and falls back to logging the
// delivery attempt. Both are throttled.
func newSender(cfg serverConfig, logger *slog.Logger) (clubAuth.CodeSender, error) {
	var next clubAuth.CodeSender = notify.NewLogSender(logger)
	resend := notify.NewResendSender(notify.ResendConfig{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.ResendFrom,
		Logger: logger,
	})
	if resend.Configured() {
		next = resend
	} else {
		logger.Info("resend not configured; two-factor codes will not be emailed")
	}

	perHour := cfg.MailPerHour
	if perHour <= 0 {
		perHour = 5
	}
	return notify.NewThrottled(next, notify.ThrottleConfig{
		Global:            rate.Limit(20),
		GlobalBurst:       50,
		PerRecipient:      rate.Every(time.Hour / time.Duration(perHour)),
		PerRecipientBurst: perHour,
	})
}

// firstMatch accepts credentials any verifier accepts. Backend errors only
// surface when no verifier matched.
func firstMatch(verifiers ...clubAuth.CredentialVerifier) clubAuth.CredentialVerifier {
	return clubAuth.CredentialVerifierFunc(func(ctx context.Context, email, plain string) (bool, error) {
		var firstErr error
		for _, v := range verifiers {
			ok, err := v.VerifyCredentials(ctx, email, plain)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, firstErr
	})
}
