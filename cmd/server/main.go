package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fridgegram/fridgegram/internal/auth"
	"github.com/fridgegram/fridgegram/internal/config"
	"github.com/fridgegram/fridgegram/internal/feed"
	httpserver "github.com/fridgegram/fridgegram/internal/http"
	"github.com/fridgegram/fridgegram/internal/identity"
	"github.com/fridgegram/fridgegram/internal/imagestore"
	"github.com/fridgegram/fridgegram/internal/metrics"
	"github.com/fridgegram/fridgegram/internal/profilecache"
	"github.com/fridgegram/fridgegram/internal/repository"
	"github.com/fridgegram/fridgegram/internal/store"
	"github.com/fridgegram/fridgegram/internal/streak"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[fridgegram] ", log.LstdFlags|log.Lshortfile)

	if err := store.RunMigrations(cfg.DBURL, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnIdleTime: time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime: time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:     time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		Logger:          logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	identityClient, err := identity.NewHTTPClient(cfg.IdentityURL, cfg.IdentityAPIKey, time.Duration(cfg.IdentityTimeoutSecs)*time.Second, logger)
	if err != nil {
		log.Fatalf("init identity client: %v", err)
	}

	images, err := imagestore.NewMinioStore(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket, cfg.StoragePublicURL, cfg.StorageUseSSL)
	if err != nil {
		log.Fatalf("init image store: %v", err)
	}

	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		log.Fatalf("load streak timezone: %v", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	repo := repository.New(st)
	sessions := auth.NewSessions(cfg.JWTSecret, time.Duration(cfg.SessionTTLSecs)*time.Second)
	cache := profilecache.New(repo.Profiles, time.Duration(cfg.ProfileCacheTTLSecs)*time.Second, logger)
	cache.SetObserver(collector)
	tracker := streak.New(repo.Profiles, loc, logger)

	hub := feed.NewHub(logger)
	listener := feed.NewListener(st.Pool(), hub, logger)
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("feed hub stopped: %v", err)
		}
	}()
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("feed listener stopped: %v", err)
		}
	}()

	server := httpserver.New(cfg, httpserver.Deps{
		Store:    st,
		Repo:     repo,
		Identity: identityClient,
		Sessions: sessions,
		Images:   images,
		Cache:    cache,
		Tracker:  tracker,
		Hub:      hub,
		Metrics:  collector,
		Gatherer: registry,
		Logger:   logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
