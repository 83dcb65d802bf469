package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sunr3d/explorer/internal/api"
	"github.com/sunr3d/explorer/internal/config"
	"github.com/sunr3d/explorer/internal/format"
	"github.com/sunr3d/explorer/internal/infra/inmem"
	"github.com/sunr3d/explorer/internal/infra/ipc"
	"github.com/sunr3d/explorer/internal/infra/redis"
	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/internal/middleware"
	"github.com/sunr3d/explorer/internal/server"
	"github.com/sunr3d/explorer/internal/services/archive_service"
	"github.com/sunr3d/explorer/internal/views"
)

func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.RootDir, 0755); err != nil {
		return fmt.Errorf("не удалось создать корневую директорию: %w", err)
	}
	log.Info("корневая директория готова", zap.String("path", cfg.RootDir))

	if err := os.MkdirAll(cfg.ArchivesDir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для архивов: %w", err)
	}
	log.Info("директория для архивов готова", zap.String("path", cfg.ArchivesDir))

	stat, closeStat, err := newStat(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStat()

	tmpl, err := views.Parse()
	if err != nil {
		return fmt.Errorf("не удалось разобрать шаблоны: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		notifier infra.Notifier
		channel  *ipc.Channel
	)
	if cfg.IPCSocket != "" {
		transport := ipc.NewUnixTransport(log, cfg.IPCSocket, cfg.IPCTimeout)
		channel = ipc.NewChannel(log, transport, cfg.IPCQueueSize)
		notifier = channel
		g.Go(func() error {
			return channel.Run(gctx)
		})
		log.Info("IPC канал включен", zap.String("socket", cfg.IPCSocket))
	} else {
		notifier = ipc.NewNop(log)
	}

	svc := archive_service.New(log, cfg, stat, notifier)
	responder := format.New(log, tmpl)
	controller := api.New(svc, stat, responder, log, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /archive", controller.CreateArchive)
	mux.HandleFunc("GET /stat", controller.GetStat)

	router := http.Handler(mux)
	router = middleware.BodyValidator()(router)
	router = middleware.User(cfg)(router)
	router = responder.Middleware()(router)
	router = middleware.ReqLogger(log)(router)
	router = middleware.Recovery(log)(router)

	srv := server.New(cfg, router, log)
	g.Go(func() error {
		err := srv.Run(gctx)

		drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.JobsDrainTimeout)
		defer cancelDrain()
		if derr := svc.Shutdown(drainCtx); derr != nil {
			log.Warn("не все задачи архивации завершились до остановки", zap.Error(derr))
		}

		if channel != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.IPCTimeout)
			defer cancel()
			if cerr := channel.Close(closeCtx); cerr != nil {
				log.Warn("IPC очередь не опустошена", zap.Error(cerr))
			}
		}
		return err
	})

	return g.Wait()
}

func newStat(ctx context.Context, cfg *config.Config, log *zap.Logger) (infra.StatReporter, func(), error) {
	if cfg.StatBackend != config.StatBackendRedis {
		log.Info("журнал статистики в памяти", zap.String("namespace", cfg.StatNamespace))
		return inmem.New(log, cfg.StatNamespace), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("журнал статистики в Redis",
		zap.String("addr", cfg.RedisAddr),
		zap.String("namespace", cfg.StatNamespace),
	)

	return redis.New(log, client, cfg.StatNamespace), func() {
		if err := client.Close(); err != nil {
			log.Warn("ошибка закрытия клиента Redis", zap.Error(err))
		}
	}, nil
}
