package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/friendconnect/internal/config"
	"github.com/Dias221467/friendconnect/internal/database"
	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/handlers"
	"github.com/Dias221467/friendconnect/internal/jobs"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/repository/memory"
	"github.com/Dias221467/friendconnect/internal/scheduler"
	"github.com/Dias221467/friendconnect/internal/services"
	"github.com/Dias221467/friendconnect/internal/session"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/Dias221467/friendconnect/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal(err)
	}
}

// run wires the server and blocks until a shutdown signal. Every failure is returned so
// deferred cleanup still runs.
func run() error {
	// Load configuration from .env file and environment
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	var store *repository.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Log.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore().Repositories()
	default:
		db, err := database.ConnectDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("database connection error: %w", err)
		}
		defer func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				logger.Log.WithError(err).Warn("MongoDB disconnect failed")
			}
		}()
		store = repository.NewMongoStore(db, cfg.StoreTimeout)
	}

	// --- Locks ---
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		locker = lock.NewRedisLocker(client)
		logger.Log.WithField("addr", cfg.RedisAddr).Info("Using Redis locks")
	}
	locker = lock.WithTimeout(locker, cfg.LockTimeout)

	// --- Events ---
	hub := events.NewHub()
	publishers := events.Multi{hub}
	if cfg.NatsURL != "" {
		nats, err := events.NewNatsPublisher(ctx, cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("NATS connection error: %w", err)
		}
		defer nats.Close()
		publishers = append(publishers, nats)
	}

	clock := util.NewRealClock()
	sessions := session.NewRegistry(clock)

	// --- Services ---
	credentialService := services.NewCredentialService(store.Users, publishers, clock)
	friendService := services.NewFriendService(store.Users, locker, publishers, clock)
	groupService := services.NewGroupService(store.Users, store.Groups, locker, publishers, clock)
	postService := services.NewPostService(store, locker, publishers, clock)
	feedService := services.NewFeedService(store)
	userService := services.NewUserService(store.Users, locker, friendService)

	// --- Background jobs ---
	reconciler := jobs.NewReconciler(friendService, groupService, postService)
	jobRunner, err := scheduler.Start(sessions, cfg.SweepInterval, reconciler, cfg.ReconcileSchedule, time.Minute)
	if err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}

	// --- Handlers ---
	router := handlers.NewRouter(cfg, sessions, &handlers.Handlers{
		Users:   handlers.NewUserHandler(credentialService, userService, sessions, cfg, clock),
		Friends: handlers.NewFriendHandler(friendService, userService),
		Groups:  handlers.NewGroupHandler(groupService),
		Posts:   handlers.NewPostHandler(postService),
		Feed:    handlers.NewFeedHandler(feedService),
		Events:  handlers.NewEventsHandler(hub, cfg.AllowedOrigins),
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Log.Info("Shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	<-jobRunner.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}

	// one last pass so queued pairs are not lost with the process
	if err := reconciler.RunPending(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("Final repair pass incomplete")
	}
	return runErr
}
