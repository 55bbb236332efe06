package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/auth"
	"github.com/psds-microservice/inquiry-service/internal/config"
	"github.com/psds-microservice/inquiry-service/internal/database"
	"github.com/psds-microservice/inquiry-service/internal/handler"
	"github.com/psds-microservice/inquiry-service/internal/kafka"
	"github.com/psds-microservice/inquiry-service/internal/notify"
	"github.com/psds-microservice/inquiry-service/internal/router"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/psds-microservice/inquiry-service/internal/storage"
	"github.com/psds-microservice/inquiry-service/internal/telemetry"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
)

// API приложение: HTTP сервер (режим api).
type API struct {
	cfg       *config.Config
	httpSrv   *http.Server
	events    *notify.Fanout
	producer  *kafka.Producer
	userCache *handler.UserCache
	shutdown  func(context.Context) error
}

func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	shutdown := telemetry.Setup(ctx, "inquiry-service")
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	files, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicInquiry)
	events := NewFanout(cfg, producer)

	registry := workflow.Default()
	inquiries := service.NewInquiryService(db, workflow.NewMachine(registry), files, events)
	users := service.NewUserService(db)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpire)
	userCache := handler.NewUserCache(cfg.UserCacheTTL)
	go userCache.Start()
	authn := handler.NewAuthenticator(tokens, users, userCache)

	deps := router.Deps{
		Authn:     authn,
		Auth:      handler.NewAuthHandler(users, tokens, authn),
		Inquiries: handler.NewInquiryHandler(inquiries),
		Uploads:   handler.NewUploadHandler(files, cfg.Storage.MaxFileSize),
		DB:        db,
	}
	if cfg.Storage.Driver == "local" {
		deps.UploadDir = cfg.Storage.UploadDir
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:       cfg,
		httpSrv:   httpSrv,
		events:    events,
		producer:  producer,
		userCache: userCache,
		shutdown:  shutdown,
	}, nil
}

// NewStorage выбирает хранилище вложений по STORAGE_DRIVER.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			MaxSize:   cfg.Storage.MaxFileSize,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return s, nil
	default:
		l, err := storage.NewLocal(cfg.Storage.UploadDir, router.PathUploads, cfg.Storage.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return l, nil
	}
}

// NewFanout собирает все настроенные получатели событий.
func NewFanout(cfg *config.Config, producer *kafka.Producer) *notify.Fanout {
	var sinks []notify.Notifier
	if producer.Enabled() {
		sinks = append(sinks, producer)
	}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.NotifyWebhookURL))
	}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		sinks = append(sinks, notify.NewSlack(cfg.SlackBotToken, cfg.SlackChannelID))
	}
	return notify.NewFanout(sinks...)
}

// Run запускает HTTP сервер, блокируется до отмены ctx и затем дожидается фоновых отправок.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	slog.Info("HTTP server listening",
		slog.String("addr", a.httpSrv.Addr),
		slog.String("swagger", base+router.PathSwagger),
		slog.String("api", base+router.PathAPI),
		slog.Int("event_sinks", a.events.Len()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.httpSrv.Shutdown(shutdownCtx)
	a.events.Wait()
	a.userCache.Stop()
	if cerr := a.producer.Close(); cerr != nil {
		slog.Warn("kafka: close producer", slog.Any("err", cerr))
	}
	if terr := a.shutdown(shutdownCtx); terr != nil {
		slog.Warn("telemetry: shutdown", slog.Any("err", terr))
	}
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
