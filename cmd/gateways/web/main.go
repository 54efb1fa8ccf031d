package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/xilidan/meetings/config/web"
	"github.com/xilidan/meetings/gateways/web"
	"github.com/xilidan/meetings/gateways/web/handler"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/client"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		return
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// requests carry the caller's token through to the meetings service
	address := fmt.Sprintf("%s:%d", cfg.MeetingsService.Url, cfg.MeetingsService.Port)
	meetings, err := client.New(address, "")
	if err != nil {
		return fmt.Errorf("failed to create meetings client: %w", err)
	}
	defer meetings.Close()
	log.Info("meetings client created", slog.String("address", address))

	router := web.NewRouter(handler.NewHandler(meetings), web.RouterOptions{JWTSecret: cfg.JWTSecret})

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()
	log.Info("server running", slog.Int("port", cfg.Port))

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to http.ListenAndServe: %w", err)
	case <-ctx.Done():
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
