package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/catalog"
	"tankcatalog/internal/config"
	"tankcatalog/internal/db"
	"tankcatalog/internal/handler"
	"tankcatalog/internal/logging"
	"tankcatalog/internal/middleware"
	"tankcatalog/internal/password"
	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
	"tankcatalog/internal/user"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "conf", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.RunMode)
	gin.SetMode(cfg.RunMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer conn.Close()

	sessions := session.NewSQLStore(conn)
	users := user.NewSQLStore(conn)
	cat := catalog.NewSQLStore(conn)

	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		log.WithError(err).Fatal("bad hasher parameters")
	}

	tokens, err := token.NewManager(token.Config{
		SigningKey: []byte(cfg.SigningKey),
		Issuer:     cfg.TokenIssuer,
	})
	if err != nil {
		log.WithError(err).Fatal("bad token configuration")
	}

	var limiter *auth.LoginLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()

		limiter, err = auth.NewLoginLimiter(client, auth.LimiterConfig{
			MaxAttempts: cfg.LoginMaxPerMin,
			Cooldown:    time.Minute,
		})
		if err != nil {
			log.WithError(err).Fatal("bad limiter configuration")
		}
		log.WithField("addr", cfg.RedisAddr).Info("login throttling enabled")
	} else {
		log.Warn("redis not configured, login throttling disabled")
	}

	engine, err := auth.NewEngine(auth.Config{
		SessionDuration: cfg.SessionDuration,
	}, sessions, user.NewProvider(users), hasher, tokens, limiter, log)
	if err != nil {
		log.WithError(err).Fatal("engine initialization failed")
	}

	server := handler.New(engine, sessions, users, cat, tokens, middleware.CookieOptions{
		Secure: cfg.CookieSecure,
		Domain: cfg.CookieDomain,
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	reaper := session.NewReaper(sessions, cfg.ReapInterval, cfg.ReapRetention, log)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return reaper.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
	log.Info("server stopped cleanly")
}
