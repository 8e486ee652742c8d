package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audio-recorder/config"
	"audio-recorder/constant"
	recHandler "audio-recorder/handler"
	"audio-recorder/pkg/rabbitmq"
	"audio-recorder/pkg/token"
	"audio-recorder/pkg/ws"
	"audio-recorder/repository"
	"audio-recorder/service"
	"audio-recorder/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewRabbitMQConn")
	}

	publisher, err := rabbitmq.NewPublisher(conn, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewPublisher")
	}
	defer publisher.Close()

	repo := repository.NewRepo(cfg.DB)
	blobs := storage.NewMinIOStore(cfg.Storage, cfg.MinIOBucket)
	tokens := token.NewManager(cfg.Auth.JWTSecret)
	hub := ws.NewHub()

	recordingService := service.NewRecordingService(repo, blobs, publisher)
	uploadCoordinator := service.NewUploadCoordinator(repo, blobs, publisher)
	assemblyEngine := service.NewAssemblyEngine(repo, blobs)

	// Events published by any instance come back through the fan-out
	// exchange and reach the sockets connected to this one.
	eventConsumer := rabbitmq.NewEventConsumer(conn, cfg.Queue, cfg.Server.Workers, recHandler.RecordingEventHandler)
	go func() {
		err := eventConsumer.Consume(ctx, recHandler.EventDependencies{Hub: hub})
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("event consumer error")
		}
	}()

	r := gin.Default()
	r.Use(recHandler.RequestLogger(*zerolog.Ctx(ctx)))
	addHealth(r)

	h := recHandler.NewHandler(recordingService, uploadCoordinator, assemblyEngine)
	recHandler.RegisterRoutes(r, h, tokens, hub)

	httpServer := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
