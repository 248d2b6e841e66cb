package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"fitdiary/internal/config"
	"fitdiary/internal/db"
	"fitdiary/internal/export"
	"fitdiary/internal/handlers"
	"fitdiary/internal/logging"
	"fitdiary/internal/realtime"
	"fitdiary/internal/reminder"
	"fitdiary/internal/settings"
	"fitdiary/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is not known yet
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	logger := logging.New(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dbConn *sqlx.DB
	if cfg.DatabaseURL != "" {
		dbConn, err = openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open db", zap.Error(err))
		}
		defer dbConn.Close()
	} else {
		logger.Warn("DATABASE_URL not set; memory backend keeps users, settings and records in process")
	}

	var (
		users         store.UserStore = store.NewMemoryUserStore()
		settingsStore settings.Store  = settings.NewMemoryStore()
	)
	if dbConn != nil {
		users = store.NewPostgresUserStore(dbConn)
		settingsStore = settings.NewPostgresStore(dbConn)
	}

	records, closeRecords, err := openRecordStore(ctx, cfg, dbConn, logger)
	if err != nil {
		logger.Fatal("failed to open record store", zap.String("backend", cfg.RecordBackend), zap.Error(err))
	}
	defer closeRecords()

	sink, err := openSink(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to set up export sink", zap.String("sink", cfg.ExportSink), zap.Error(err))
	}

	settingsSvc := settings.NewService(settingsStore)
	hub := realtime.NewHub(logger)

	var reminders handlers.ReminderEnsurer
	if cfg.RemindersEnabled {
		sched := reminder.NewScheduler(hub, logger, time.Local)
		reminders = sched
		go func() {
			if err := sched.Run(ctx, settingsSvc); err != nil {
				logger.Error("reminder scheduler failed", zap.Error(err))
			}
		}()
	}

	r := newRouter(cfg, logger, routeDeps{
		users:     users,
		records:   records,
		settings:  settingsSvc,
		hub:       hub,
		sink:      sink,
		reminders: reminders,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("record_backend", cfg.RecordBackend),
			zap.String("export_sink", cfg.ExportSink),
			zap.String("entry_validation", string(cfg.EntryValidation)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}

func openPostgres(ctx context.Context, url string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(2 * time.Hour)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// openRecordStore builds the configured backend and wraps it in the Redis
// cache when REDIS_ADDR is set.
func openRecordStore(ctx context.Context, cfg config.Config, dbConn *sqlx.DB, logger *zap.Logger) (store.RecordStore, func(), error) {
	var (
		records store.RecordStore
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.RecordBackend {
	case config.BackendPostgres:
		records = store.NewPostgresStore(dbConn)
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		if err := client.Ping(ctx, nil); err != nil {
			closeAll()
			return nil, nil, err
		}
		ms := store.NewMongoStore(client.Database(cfg.MongoDB))
		if err := ms.EnsureIndexes(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		records = ms
	default:
		records = store.NewMemoryStore()
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; continuing with cache misses", zap.Error(err))
		}
		records = store.NewCachedStore(records, rdb, cfg.CacheTTL, logger)
	}
	return records, closeAll, nil
}

func openSink(ctx context.Context, cfg config.Config) (export.Sink, error) {
	if cfg.ExportSink == config.SinkS3 {
		return export.NewS3Sink(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	return export.NewFileSink(cfg.ExportDir)
}
