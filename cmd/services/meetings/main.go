package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"

	config "github.com/xilidan/meetings/config/meetings"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/audio"
	"github.com/xilidan/meetings/services/meetings/server"
	"github.com/xilidan/meetings/services/meetings/storage"
	"github.com/xilidan/meetings/services/meetings/tasks"
	"github.com/xilidan/meetings/services/meetings/transcriber"
	"github.com/xilidan/meetings/services/meetings/usecase"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: cfg.Log.JSON,
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
	stg, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer stg.Close()
	log.Info("storage opened", slog.String("driver", cfg.Storage.Driver))

	audioStore, closeAudio, err := openAudio(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAudio()

	tr := openTranscriber(ctx, cfg, log)
	if closer, ok := tr.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	var taskStore storage.Tasks = stg
	if cfg.Tasks.Backend == "http" {
		taskStore = tasks.New(&cfg.Tasks.Service)
		log.Info("exporting tasks to remote service",
			slog.String("url", cfg.Tasks.Service.Url),
			slog.Int("port", cfg.Tasks.Service.Port))
	}

	usc := usecase.New(stg, taskStore, audioStore, tr)

	srv := server.NewServerOptions(usc, log, cfg.JWTSecret)
	grpcServer, err := srv.NewServer()
	if err != nil {
		log.Error("failed to create grpc server", slog.String("error", err.Error()))
		return err
	}

	serverErrors := make(chan error, 1)

	address := fmt.Sprintf(":%d", cfg.GRPCPort)
	grpcListener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("failed to listen on grpc port", slog.String("error", err.Error()))
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	go func() {
		serverErrors <- grpcServer.Serve(grpcListener)
	}()
	log.Info("meetings grpc service started", slog.String("address", address))

	select {
	case err := <-serverErrors:
		log.Info("grpc server has closed")
		return fmt.Errorf("grpc server has closed: %w", err)
	case <-ctx.Done():
		log.Info("closing grpc server due to context cancellation")
		grpcServer.GracefulStop()
		return nil
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite":
		return storage.OpenSQLite(cfg.Storage.DataDir)
	case "postgres":
		db := cfg.Database
		return storage.OpenPostgres(ctx, storage.PostgresDSN(db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode))
	case "firestore":
		client, err := storage.NewFirestoreClient(ctx, cfg.Gemini.ProjectID)
		if err != nil {
			return nil, err
		}
		return storage.NewFirestore(client), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openAudio(ctx context.Context, cfg *config.Config) (audio.Store, func() error, error) {
	switch cfg.Audio.Backend {
	case "local":
		return audio.NewLocal(cfg.Audio.Dir), func() error { return nil }, nil
	case "gcs":
		if cfg.Audio.Bucket == "" {
			return nil, nil, fmt.Errorf("AUDIO_BUCKET is required for the gcs audio backend")
		}
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs.NewClient: %w", err)
		}
		return audio.NewGCS(client, cfg.Audio.Bucket, cfg.Audio.Prefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown audio backend %q", cfg.Audio.Backend)
	}
}

// openTranscriber never fails: without a usable Gemini client the service
// still ingests and serves meetings, and processing reports unavailability.
func openTranscriber(ctx context.Context, cfg *config.Config, log *slog.Logger) transcriber.Transcriber {
	if cfg.Gemini.ProjectID == "" {
		log.Warn("GCP_PROJECT_ID is not set, transcription is disabled")
		return transcriber.Unavailable{Reason: "GCP_PROJECT_ID is not set"}
	}

	g, err := transcriber.NewGemini(ctx, cfg.Gemini.ProjectID, cfg.Gemini.Region, cfg.Gemini.Model)
	if err != nil {
		log.Warn("failed to create gemini client, transcription is disabled", slog.String("error", err.Error()))
		return transcriber.Unavailable{Reason: err.Error()}
	}
	log.Info("gemini transcriber ready",
		slog.String("model", cfg.Gemini.Model),
		slog.String("region", cfg.Gemini.Region))
	return g
}
