package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/watchroom/server/internal/controller"
	metaredis "github.com/watchroom/server/internal/repository/roommeta/redis"
	"github.com/watchroom/server/internal/room"
	"github.com/watchroom/server/internal/scheduler"
	roomservice "github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/randstr"
	"github.com/watchroom/server/pkg/redisclient"
)

type AppConfig struct {
	Secret            string `json:"-"`
	Host              string `json:"host"`
	Port              int    `json:"port"`
	MembersLimit      int    `json:"members_limit"`
	PlaylistLimit     int    `json:"playlist_limit"`
	SchedulerInterval int    `json:"scheduler_interval_seconds"`
	LogLevel          string `json:"log_level"`
	RedisPort         int    `json:"redis_port"`
	RedisHost         string `json:"redis_host"`
	RedisPassword     string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.SchedulerInterval < 1 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	metaRepo := metaredis.NewRepo(rc, 24*14*time.Hour)

	registry := room.NewRegistry(randstr.NewDefault(), &room.RegistryConfig{
		MembersLimit: cfg.MembersLimit,
		OnEvict: func(roomId string) {
			if err := metaRepo.SetRoomClosedByRoomId(ctx, roomId); err != nil {
				logger.DebugContext(ctx, "failed to close room metadata", "room_id", roomId, "error", err)
			}
		},
	}, logger)

	roomService := roomservice.NewService(registry, metaRepo, &roomservice.Config{
		Secret:        cfg.Secret,
		PlaylistLimit: cfg.PlaylistLimit,
	}, logger)

	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sched := scheduler.New(registry, time.Duration(cfg.SchedulerInterval)*time.Second, logger)
	var schedWg sync.WaitGroup
	schedWg.Add(1)
	go func() {
		defer schedWg.Done()
		sched.Run(serverCtx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		serverStopCtx()
		schedWg.Wait()
		return err
	}

	<-serverCtx.Done()
	schedWg.Wait()

	return nil
}
