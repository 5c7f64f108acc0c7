package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"room-service/config"
	"room-service/controllers"
	"room-service/middleware"
	"room-service/poller"
	"room-service/pubsub"
	"room-service/routes"
	"room-service/services"
	"room-service/store"
	"room-service/utils"
)

func openStore(cfg config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "mysql":
		db, err := config.ConnectDatabase(cfg.DB, !cfg.Production())
		if err != nil {
			return nil, nil, err
		}
		gs := store.NewGormStore(db, cfg.Store.Timeout)
		if err := gs.AutoMigrate(); err != nil {
			return nil, nil, err
		}
		log.Info().Msg("✅ migrations applied")
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return gs, closeFn, nil
	case "", "memory":
		ms, err := store.OpenMemoryStore(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("snapshot", cfg.Store.SnapshotPath).Msg("✅ in-memory store ready")
		return ms, func() {}, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.Store.Driver)
	}
}

func openBroker(ctx context.Context, cfg config.Config) (pubsub.Broker, error) {
	switch cfg.Push.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Push.RedisAddr, Password: cfg.Push.RedisPass})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return pubsub.NewRedisBroker(rdb), nil
	case "kafka":
		return pubsub.NewKafkaBroker(cfg.Push.KafkaBrokers), nil
	default:
		return nil, nil
	}
}

func main() {
	cfg := config.Load()
	utils.SetupLogger(cfg.Server.LogLevel, cfg.Production())
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("❌ store init failed")
	}
	defer closeStore()

	broker, err := openBroker(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Push.Driver).Msg("⚠️  push channel unavailable; polling only")
	}
	if broker != nil {
		defer broker.Close()
		st = pubsub.NewNotifyingStore(st, broker, cfg.Push.TopicPrefix)
		log.Info().Str("driver", cfg.Push.Driver).Msg("✅ push channel enabled")
	}

	// Initialize services
	billingSvc := services.NewBillingService(st)
	orderSvc := services.NewOrderService(st, billingSvc)
	menuSvc := services.NewMenuService(st)

	if cfg.Store.SeedMenu {
		n, err := menuSvc.SeedMenu(ctx, config.DefaultMenu())
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  menu seed failed")
		} else if n > 0 {
			log.Info().Int("items", n).Msg("✅ default menu seeded")
		}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn().Msg("⚠️  JWT_SECRET not set; generated a random one, staff sessions end on restart")
		if secret, err = utils.GenerateSecureToken(32); err != nil {
			log.Fatal().Err(err).Msg("❌ cannot generate jwt secret")
		}
	}
	authSvc, err := services.NewAuthService(cfg.Auth.StaffUsername, cfg.Auth.StaffPasswordHash, cfg.Auth.StaffPassword, secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ auth init failed; set STAFF_PASSWORD or STAFF_PASSWORD_HASH")
	}

	orderPoller := poller.New(st, cfg.Poll.Interval, cfg.Store.Timeout)

	// Initialize controllers
	router := routes.SetupRouter(routes.Deps{
		Menu:        controllers.NewMenuController(menuSvc, services.NewImageService(cfg.Server.UploadDir, routes.UploadsPath)),
		Orders:      controllers.NewOrderController(orderSvc, billingSvc, orderPoller),
		Bills:       controllers.NewBillController(billingSvc),
		Auth:        controllers.NewAuthController(authSvc),
		AuthSvc:     authSvc,
		OrderLimit:  middleware.NewIPRateLimiter(cfg.Server.OrderRate, cfg.Server.OrderBurst, 10*time.Minute),
		CorsOrigins: cfg.Server.CorsOrigins,
		UploadDir:   cfg.Server.UploadDir,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// no WriteTimeout: the staff order stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orderPoller.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("🚀 server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Warn().Msg("⚠️  shutdown signal received, shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("❌ server stopped with error")
		return
	}
	log.Info().Msg("✅ server stopped gracefully")
}
