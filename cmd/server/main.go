package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/config"
	"github.com/iliyamo/user-directory/internal/database"
	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/middleware"
	"github.com/iliyamo/user-directory/internal/queue"
	"github.com/iliyamo/user-directory/internal/repository"
	"github.com/iliyamo/user-directory/internal/router"
	"github.com/iliyamo/user-directory/internal/service"
	"github.com/iliyamo/user-directory/internal/utils"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithError(err).Warn("invalid LOG_LEVEL, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// ---- stores ----
	var (
		db        *sql.DB
		users     service.UserStore
		addresses service.AddressStore
	)
	switch cfg.StoreDriver {
	case "memory":
		mdb := repository.NewMemoryDB()
		users, addresses = mdb.Users(), mdb.Addresses()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		var err error
		db, err = database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.WithError(err).Fatal("mysql connect failed")
		}
		users, addresses = repository.NewUserRepo(db), repository.NewAddressRepo(db)
	}

	// ---- cache ----
	rdb := config.NewRedisClient(log)
	var kv cache.TakeStore
	if rdb != nil {
		kv = cache.NewRedisStore(rdb, cfg.Cache.Prefix)
	} else {
		log.Warn("profile cache and reset codes kept in process")
		kv = cache.NewMemoryStore(cfg.Cache.MemorySize, max(cfg.Cache.TTL, service.ResetCodeTTL))
	}
	profiles := cache.New(kv, cfg.Cache.TTL, cache.WithMetrics(m), cache.WithLogger(log))

	// ---- events ----
	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}
	var events *queue.AsyncPublisher
	if cfg.EventsEnabled {
		events = queue.NewAsyncPublisher(queue.NewPublisher(cfg.AMQPURL, log), 256, log)
		opts = append(opts, service.WithEvents(events))
		if cfg.AuditLogPath != "" {
			consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogPath, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("audit consumer stopped")
				}
			}()
		}
	}

	// ---- services ----
	tokens := utils.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL())
	dir := service.NewDirectory(users, opts...)
	authArgs := service.AuthServiceArgs{
		Directory:         dir,
		Hasher:            utils.NewPasswordHasher(cfg.BcryptCost),
		Tokens:            tokens,
		Cache:             profiles,
		SelfRegisterRoles: cfg.SelfRegisterRoles,
	}
	if cfg.ForgotRequiresCode {
		authArgs.ResetCodes = cache.NewResetCodes(kv)
	}
	authSvc := service.NewAuthService(authArgs, opts...)
	userSvc := service.NewUserService(service.UserServiceArgs{Directory: dir, Cache: profiles}, opts...)
	addrSvc := service.NewAddressService(service.AddressServiceArgs{Directory: dir, Addresses: addresses}, opts...)

	e := router.New(router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Admin:         handler.NewAdminHandler(userSvc, authSvc),
		Addresses:     handler.NewAddressHandler(addrSvc),
		Health:        handler.NewHealthHandler(db, rdb),
		Authenticator: middleware.NewAuthenticator(tokens, dir, middleware.WithAuthMetrics(m), middleware.WithAuthLogger(log)),
		Metrics:       m,
	}, log)

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if events != nil {
		if err := events.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("events not fully drained")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
