package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pharmalink/directory-api/internal/config"
	"github.com/pharmalink/directory-api/internal/email"
	"github.com/pharmalink/directory-api/internal/handler"
	authHandler "github.com/pharmalink/directory-api/internal/handler/auth"
	doctorHandler "github.com/pharmalink/directory-api/internal/handler/doctor"
	notificationHandler "github.com/pharmalink/directory-api/internal/handler/notification"
	prescriptionHandler "github.com/pharmalink/directory-api/internal/handler/prescription"
	reviewHandler "github.com/pharmalink/directory-api/internal/handler/review"
	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/repository/postgres"
	redisrepo "github.com/pharmalink/directory-api/internal/repository/redis"
	"github.com/pharmalink/directory-api/internal/router"
	authService "github.com/pharmalink/directory-api/internal/service/auth"
	doctorService "github.com/pharmalink/directory-api/internal/service/doctor"
	filesService "github.com/pharmalink/directory-api/internal/service/files"
	notificationService "github.com/pharmalink/directory-api/internal/service/notification"
	prescriptionService "github.com/pharmalink/directory-api/internal/service/prescription"
	"github.com/pharmalink/directory-api/internal/storage"
	"github.com/pharmalink/directory-api/pkg/auth"
	"github.com/pharmalink/directory-api/pkg/logger"
	"github.com/pharmalink/directory-api/pkg/metrics"
	"github.com/pharmalink/directory-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(postgres.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	tokenRepo, err := redisrepo.NewTokenRepository(redisrepo.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	var encryptor security.Encryptor
	if cfg.Upload.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.Upload.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid upload encryption key")
		}
		if encryptor, err = security.NewAESEncryptor(key); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize document encryptor")
		}
	}

	store, err := storage.NewDocumentStore(cfg.Upload.Root, encryptor)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document store")
	}

	base := postgres.NewBaseRepository(db)
	accountRepo := postgres.NewAccountRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	prescriptionRepo := postgres.NewPrescriptionRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	pharmacyRepo := postgres.NewPharmacyRepository(base)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessExpiry:  time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)

	var emailSvc email.Service = email.NoopService{}
	if cfg.Email.Enabled {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	}

	m := metrics.NewMetrics("pharmalink", "api")

	authSvc := authService.NewService(accountRepo, tokenRepo, jwtSvc, hasher, emailSvc)
	doctorSvc := doctorService.NewService(doctorRepo, accountRepo, store, hasher, emailSvc, m)
	filesSvc := filesService.NewService(doctorRepo, store)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, accountRepo, m)
	notificationSvc := notificationService.NewService(notificationRepo)

	authMiddleware := middleware.NewAuthMiddleware(authSvc, pharmacyRepo)

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc)
	reviewH := reviewHandler.NewHandler(doctorSvc, filesSvc, m)
	prescriptionH := prescriptionHandler.NewHandler(prescriptionSvc)
	notificationH := notificationHandler.NewHandler(notificationSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	r := router.NewRouter(
		authMiddleware,
		authH,
		doctorH,
		reviewH,
		prescriptionH,
		notificationH,
		h,
		m,
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: corsConfig,
			Timeout:    cfg.Server.RequestTimeout,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
