// Command server runs the SkillHub booking API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/iliyamo/skillhub-booking/internal/config"
	"github.com/iliyamo/skillhub-booking/internal/database"
	"github.com/iliyamo/skillhub-booking/internal/handler"
	"github.com/iliyamo/skillhub-booking/internal/logger"
	"github.com/iliyamo/skillhub-booking/internal/middleware"
	"github.com/iliyamo/skillhub-booking/internal/queue"
	"github.com/iliyamo/skillhub-booking/internal/repository"
	"github.com/iliyamo/skillhub-booking/internal/repository/docstore"
	"github.com/iliyamo/skillhub-booking/internal/repository/memstore"
	"github.com/iliyamo/skillhub-booking/internal/router"
	"github.com/iliyamo/skillhub-booking/internal/seed"
	"github.com/iliyamo/skillhub-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close(log)

	if err := seed.FromFile(ctx, st.lessons, cfg.SeedFile, log.Named("seed")); err != nil {
		log.Warn("seed lessons failed", zap.Error(err))
	}

	// Redis is optional; without it lesson reads go straight to the store.
	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb, err = config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("response cache disabled", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}
	cache := middleware.NewResponseCache(cfg.Cache, rdb, log.Named("cache"))

	var publisher service.EventPublisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log.Named("publisher"))
		go func() {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order publisher stopped", zap.Error(err))
			}
		}()
		publisher = pub
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.OrderLogDir, log.Named("consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}

	lessonSvc := service.NewLessonService(st.lessons, service.WithStrictUpdates(cfg.StrictLessonUpdate))
	orderSvc := service.NewOrderService(st.lessons, st.orders, publisher, log.Named("orders"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterMiddleware(e, log.Named("http"))
	router.RegisterRoutes(e, router.Deps{
		Lessons:   handler.NewLessonHandler(lessonSvc, cache, log.Named("lessons")),
		Orders:    handler.NewOrderHandler(orderSvc, cache, log.Named("orders")),
		Cache:     cache,
		AssetsDir: cfg.AssetsDir,
		Log:       log,
	})

	go func() {
		log.Info("listening",
			zap.String("addr", cfg.Addr()),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
		)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
}

type stores struct {
	lessons repository.LessonStore
	orders  repository.OrderStore
	mongo   *mongo.Client
	sql     *sql.DB
}

// openStores picks the datastore named by STORE_DRIVER.  A server that
// cannot be reached is logged and the process keeps running; requests that
// touch the store fail with 500 until it comes up.  A URI or DSN that can
// never connect is returned as an error.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if db == nil {
			return stores{}, err
		}
		if err != nil {
			log.Error("mysql connection failed", zap.String("host", cfg.DBHost), zap.Error(err))
		} else if err := repository.EnsureSchema(ctx, db); err != nil {
			log.Error("mysql schema", zap.Error(err))
		}
		return stores{
			lessons: repository.NewLessonRepo(db),
			orders:  repository.NewOrderRepo(db),
			sql:     db,
		}, nil
	case config.DriverMemory:
		m := memstore.New()
		return stores{lessons: m, orders: m}, nil
	default:
		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if client == nil {
			return stores{}, err
		}
		if err != nil {
			log.Error("mongodb connection failed", zap.Strings("hosts", database.MongoHosts(cfg.MongoURI)), zap.Error(err))
		}
		db := client.Database(cfg.DBName)
		return stores{
			lessons: docstore.NewLessonRepo(db.Collection(cfg.LessonsCollection)),
			orders:  docstore.NewOrderRepo(db.Collection(cfg.OrdersCollection)),
			mongo:   client,
		}, nil
	}
}

func (s stores) close(log *zap.Logger) {
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			log.Warn("mongodb disconnect", zap.Error(err))
		}
	}
	if s.sql != nil {
		if err := s.sql.Close(); err != nil {
			log.Warn("mysql close", zap.Error(err))
		}
	}
}
