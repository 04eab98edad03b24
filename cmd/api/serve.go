package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community_hub/internal/config"
	"community_hub/internal/handler"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/mysql"
	"community_hub/internal/repository/redis"
	"community_hub/internal/router"
	"community_hub/internal/service"
	"community_hub/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and start the HTTP API",
		RunE:  serveCommand,
	}
	cobraflags.RegisterMap(cmd, commonFlags)
	return cmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(commonFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	logger := pkg.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer mysql.Close(db)

	// one-time schema setup before the listener opens
	if err := mysql.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	health := map[string]handler.Pinger{
		"database": func(ctx context.Context) error { return mysql.Ping(ctx, db) },
	}

	var cache service.CommunityCache
	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = redis.NewCommunityCache(client, cfg.CommunityCacheTTL, logger)
		health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	var events service.EventPublisher = pkg.LogPublisher{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return err
		}
		defer producer.Close()
		events = producer
	}

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = pkg.NewSMTPMailer(pkg.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	email := service.NewEmailService(mailer, logger)
	defer email.Wait()

	images, imageDir, err := newImageStore(cfg)
	if err != nil {
		return err
	}

	tokens := pkg.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	users := service.NewUserService(mysql.NewUserRepository(db), tokens, events, email, logger)
	communities := service.NewCommunityService(service.CommunityServiceDeps{
		Repo:    mysql.NewCommunityRepository(db),
		Members: mysql.NewCommunityMemberRepository(db),
		Users:   users,
		Cache:   cache,
		Images:  images,
		Events:  events,
		Logger:  logger,
	})

	engine := router.New(router.Deps{
		Users:              users,
		Communities:        communities,
		Tokens:             tokens,
		Health:             health,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ImageDir:           imageDir,
		ImageURLPrefix:     cfg.ImageURLPrefix,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.DBDriver, "image_store", cfg.ImageStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown http server", "error", err)
	}
	return nil
}

// newImageStore also returns the directory to serve statically; it is empty
// when images live in object storage.
func newImageStore(cfg *config.Config) (storage.ImageStore, string, error) {
	switch cfg.ImageStore {
	case "minio":
		store, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
		})
		return store, "", err
	default:
		store, err := storage.NewLocalStore(cfg.ImageDir, cfg.ImageURLPrefix)
		return store, cfg.ImageDir, err
	}
}
