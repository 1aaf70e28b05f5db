package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/phonely/marketplace/internal/api"
	"github.com/phonely/marketplace/internal/core/ports"
	"github.com/phonely/marketplace/internal/core/service"
	"github.com/phonely/marketplace/internal/infrastructure/config"
	mongodb "github.com/phonely/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/phonely/marketplace/internal/infrastructure/db/redis"
	"github.com/phonely/marketplace/internal/infrastructure/inspection"
	"github.com/phonely/marketplace/internal/infrastructure/queue"
	"github.com/phonely/marketplace/internal/infrastructure/sms"
	"github.com/phonely/marketplace/internal/infrastructure/storage"
	"github.com/phonely/marketplace/internal/realtime"
	"github.com/phonely/marketplace/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional, system environment takes over when absent.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	images, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("image store initialisation failed")
	}

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	listings := mongodb.NewListingRepository(db)
	convs := mongodb.NewConversationRepository(db)
	messages := mongodb.NewMessageRepository(db)
	reports := mongodb.NewReportRepository(db)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"users":         users.EnsureIndexes,
		"listings":      listings.EnsureIndexes,
		"conversations": convs.EnsureIndexes,
		"messages":      messages.EnsureIndexes,
		"reports":       reports.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Realtime fanout ---
	hub := realtime.NewHub(log)
	dispatcher := queue.NewDispatcher(0, hub, log)
	dispatcher.Start(ctx)

	// --- External senders ---
	var smsSender ports.SMSSender
	if cfg.SMS.GatewayURL != "" {
		smsSender = sms.NewGatewaySender(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.SenderID, log)
	} else {
		smsSender = sms.NewLogSender(log)
	}

	var inspector ports.InspectionClient
	if cfg.Inspection.URL != "" {
		inspector = inspection.NewClient(cfg.Inspection.URL, cfg.Inspection.APIKey)
	}

	// --- Services ---
	authService := service.NewAuthService(
		users,
		redisdb.NewRefreshTokenStore(rdb),
		redisdb.NewOTPStore(rdb),
		smsSender,
		cfg.JWTSecret,
		0,
		log,
	)
	listingService := service.NewListingService(listings, images, inspector, log)
	chatService := service.NewChatService(convs, messages, listings, dispatcher, log)
	reportService := service.NewReportService(reports, listingService, log)

	router := api.NewRouter(api.Deps{
		Auth:      authService,
		Users:     users,
		Listings:  listingService,
		Chat:      chatService,
		Reports:   reportService,
		Hub:       hub,
		Mongo:     db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		ImageDir:  images.Dir(),
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("phonely api listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("phonely api stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
