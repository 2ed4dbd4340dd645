package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/commands"
	"attendance/workforce/internal/pkg/cache"
	"attendance/workforce/internal/pkg/config"
	"attendance/workforce/internal/pkg/logger"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/router"
	"attendance/workforce/internal/service/face"
	"attendance/workforce/internal/service/notification"
	"attendance/workforce/internal/service/upload"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const namespace = "ATTENDANCE"

// @title						Workforce Attendance API
// @version					1.0
// @description				Geofenced check-in and check-out with face and fraud assessment and points awards.
// @BasePath					/
// @securityDefinitions.apikey	ApiKeyAuth
// @in							header
// @name						Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "loading .env")
	}

	args := os.Args[1:]
	migrateOnly := len(args) > 0 && args[0] == "migrate"
	if migrateOnly {
		args = args[1:]
	}

	configPath := os.Getenv(namespace + "_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "reading config")
	}
	if err := conf.Parse(args, namespace, cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage(namespace, cfg)
			if err != nil {
				return errors.Wrap(err, "generating usage")
			}
			fmt.Println(usage)
			return nil
		}
		return errors.Wrap(err, "parsing config")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New("attendance-api", cfg.Debug)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer log.Sync()

	if out, err := conf.String(cfg); err == nil {
		log.Info("startup config", zap.String("config", out))
	}

	// =========================================================================
	// Database

	db, err := postgresql.NewDatabase(cfg.DB)
	if err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.MigrateUP(ctx, db, log.Named("migrate")); err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	// =========================================================================
	// Cache

	var locationCache cache.Cache = cache.NewMemory()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			locationCache = cache.NewRedis(client, "attendance:")
		}
	}

	// =========================================================================
	// Collaborators

	a, err := auth.New(cfg.JWTKey)
	if err != nil {
		return err
	}

	storage := upload.NewStorage(cfg.Storage.Dir, cfg.Storage.URLPath, log)
	matcher := face.NewMatcher(
		face.NewLocalFirst(cfg.Storage.URLPath+"/", storage, face.NewHTTPFetcher(cfg.Face.Timeout)),
		face.NewEmbedClient(face.WithEmbedURL(cfg.Face.EmbedURL), face.WithEmbedModel(cfg.Face.Model)),
		cfg.Face.Timeout,
	)

	var sender notification.Sender
	if cfg.Notification.Enabled {
		sender = notification.NewWhatsApp(cfg.Notification.WhatsAppURL, cfg.Notification.Token, cfg.Notification.Timeout)
	}
	notifier, err := notification.NewService(sender, cfg.Notification.DefaultLocale, log.Named("notification"))
	if err != nil {
		return err
	}

	// =========================================================================
	// HTTP

	app := web.NewApp(log)
	r := router.NewRouter(app, db, locationCache, a, matcher, notifier, cfg, log)
	if err := r.Init(); err != nil {
		return errors.Wrap(err, "initialising routes")
	}

	srv := app.Server(cfg.Web.Port, func(s *http.Server) {
		s.ReadTimeout = cfg.Web.ReadTimeout
		s.WriteTimeout = cfg.Web.WriteTimeout
	})

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil

	case <-ctx.Done():
		log.Info("shutdown started")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := web.Shutdown(shutdownCtx, srv); err != nil {
			srv.Close()
			return errors.Wrap(err, "could not stop server gracefully")
		}
		log.Info("shutdown complete")
	}

	return nil
}
