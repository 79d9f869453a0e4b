package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/lock"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/notify"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
	"github.com/iliyamo/restaurant-table-reservation/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var locker booking.Locker
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.LockTTL)
	} else {
		log.Printf("redis unavailable: using in-process locks, rate limiting and caching disabled")
		locker = lock.NewMemory()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	mail := notify.New(cfg.SMTP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Task backend: gocron in-process, or delayed messages on RabbitMQ.
	var (
		tasks booking.Scheduler
		local *scheduler.Local
	)
	switch cfg.SchedulerBackend {
	case config.SchedulerAMQP:
		tasks = queue.NewScheduler(cfg.AMQPURL)
	default:
		local, err = scheduler.NewLocal(cfg.SchedulerWorkers, cfg.Location)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		tasks = local
	}

	svc := booking.NewService(booking.Deps{
		Reservations: reservations,
		Tables:       tables,
		Users:        users,
		Scheduler:    tasks,
		Notifier:     mail,
		Locker:       locker,
		Location:     cfg.Location,
		SiteURL:      cfg.SiteURL,
	})
	if local != nil {
		local.Start(svc)
		defer func() {
			if err := local.Shutdown(); err != nil {
				log.Printf("scheduler shutdown: %v", err)
			}
		}()
	} else {
		go queue.StartTaskConsumer(ctx, cfg.AMQPURL, svc)
	}

	cleanup, err := scheduler.StartTokenCleanup(cfg.TokenCleanupSpec, tokens)
	if err != nil {
		log.Fatalf("token cleanup: %v", err)
	}
	defer cleanup.Stop()

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Logger(), echomw.Recover(), limiter.Middleware())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, mail), cfg.JWTSecret)
	router.RegisterReservations(e, handler.NewReservationHandler(svc), cfg.JWTSecret)
	router.RegisterTables(e, handler.NewTableHandler(booking.NewInventory(tables), cache), cache, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, scheduler=%s)", addr, cfg.Env, cfg.SchedulerBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
