package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"oidcp/internal/auth/emailpattern"
	"oidcp/internal/auth/service"
	"oidcp/internal/auth/store"
	sessionstore "oidcp/internal/auth/store/session"
	userstore "oidcp/internal/auth/store/user"
	"oidcp/internal/keys"
	"oidcp/internal/platform/config"
	"oidcp/internal/platform/httpserver"
	"oidcp/internal/platform/logger"
	"oidcp/internal/platform/metrics"
	platformredis "oidcp/internal/platform/redis"
	"oidcp/internal/registry"
	httptransport "oidcp/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New(os.Getenv("OIDCP_DEBUG") == "true")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg, err := registry.Parse(cfg.ServicesJSON)
	if err != nil {
		log.Error("invalid services configuration", "error", err)
		os.Exit(1)
	}

	km, err := keys.Init(cfg.VaultPath)
	if err != nil {
		log.Error("failed to initialize key material", "error", err)
		os.Exit(1)
	}

	email, err := emailpattern.New(cfg.EmailPattern, cfg.AdminEmailPattern, cfg.UserEmailPattern)
	if err != nil {
		log.Error("invalid email pattern configuration", "error", err)
		os.Exit(1)
	}

	var sessions store.SessionStore = sessionstore.NewInMemoryStore()
	var users store.UserStore = userstore.NewInMemoryStore()
	redisClient, err := platformredis.New(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		sessions = sessionstore.NewRedisStore(redisClient)
		users = userstore.NewRedisStore(redisClient)
		log.Info("using redis-backed stores")
	}

	promRegistry := prometheus.NewRegistry()
	svc := service.New(
		service.Config{
			Issuer:          cfg.Issuer,
			BaseURL:         cfg.PublicBaseURL(),
			InternalBaseURL: cfg.InternalBaseURL,
			CodeTTL:         cfg.CodeTTL,
			TokenTTL:        cfg.TokenTTL,
		},
		reg, km, sessions, users, email,
		metrics.New(promRegistry),
		log,
	)

	router := httptransport.NewRouter(httptransport.NewHandler(svc, log), cfg.ServicePrefix, promRegistry)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting oidcp",
		"addr", cfg.Addr,
		"issuer", cfg.Issuer,
		"clients", reg.IDs(),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
