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

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/config"
	"github.com/projektfire/internal/handler"
	"github.com/projektfire/internal/ratelimit"
	"github.com/projektfire/internal/router"
	"github.com/projektfire/internal/scheduler"
	"github.com/projektfire/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the publish scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(commandContext(cmd), v)
		},
	}
}

func runServe(parent context.Context, v *viper.Viper) error {
	if parent == nil {
		parent = context.Background()
	}

	a, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	log := a.log
	gin.SetMode(cfg.GinMode)

	if cfg.UsesDefaultSecret() {
		if !cfg.IsDevelopment() {
			return errors.New("SECRET_KEY must be set outside development")
		}
		log.Warn().Msg("SECRET_KEY is the insecure default, set it before deploying")
	}

	if err := a.ensureAdmin(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	loginLimiter := ratelimit.NewLoginLimiter()
	commentLimiter := ratelimit.NewCommentLimiter()

	api := handler.NewAPI(handler.Options{
		DB:             a.db,
		Config:         cfg,
		Logger:         log,
		LoginLimiter:   loginLimiter,
		CommentLimiter: commentLimiter,
		MediaStore:     store,
	})
	engine, err := router.SetupRouter(router.Options{API: api, Config: cfg, Logger: log})
	if err != nil {
		return err
	}

	sched := scheduler.New(api.Articles(), log, loginLimiter, commentLimiter)
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	// 等待正在执行的发布任务结束后再关闭数据库
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	log.Info().Msg("server stopped")
	return runErr
}

func newMediaStore(ctx context.Context, cfg config.AppConfig) (service.MediaStore, error) {
	if cfg.MediaStorage == "s3" {
		store, err := service.NewS3MediaStore(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3PublicURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := service.NewLocalMediaStore(cfg.UploadDir, cfg.UploadURLPath)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}
	return store, nil
}
