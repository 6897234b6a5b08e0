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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/srai007/storefront/internal/config"
	"github.com/srai007/storefront/internal/es"
	"github.com/srai007/storefront/internal/handlers"
	"github.com/srai007/storefront/internal/logging"
	authmw "github.com/srai007/storefront/internal/middleware/auth"
	"github.com/srai007/storefront/internal/mykafka"
	"github.com/srai007/storefront/internal/search"
	"github.com/srai007/storefront/internal/token"
	httpserver "github.com/srai007/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Error("db init failed", "error", err)
		os.Exit(1)
	}

	producer := mykafka.NewProducer([]string{cfg.KafkaAddr})

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Error("elasticsearch init failed", "error", err)
		os.Exit(1)
	}
	searchSvc := search.NewService(esClient, "products")

	tokens := token.NewManager([]byte(cfg.JWTSecret))
	gate := &authmw.Middleware{DB: db, Tokens: tokens}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(log))

	httpserver.Register(e, &httpserver.Deps{
		Auth: &handlers.AuthHandler{
			DB:          db,
			Tokens:      tokens,
			AdminEmails: cfg.AdminEmails,
			Producer:    producer,
		},
		Products: &handlers.ProductHandler{DB: db, Producer: producer, Index: searchSvc},
		Cart:     &handlers.CartHandler{DB: db, Producer: producer},
		Search:   &handlers.SearchHandler{Service: searchSvc},
		Gate:     gate,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Error("kafka close error", "error", err)
	}

	log.Info("shutdown complete")
}
