package handler

import (
	"context"
	"net/http"

	"github.com/xilidan/meetings/services/meetings/entity"
)

// Meetings is satisfied by both the in-process usecase and the gRPC client.
type Meetings interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.Meeting, error)
	Process(ctx context.Context, id string) (*entity.Meeting, error)
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error)
	ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error)
}

type Handler interface {
	UploadHandler(w http.ResponseWriter, r *http.Request)
	ProcessHandler(w http.ResponseWriter, r *http.Request)
	GetHandler(w http.ResponseWriter, r *http.Request)
	ListHandler(w http.ResponseWriter, r *http.Request)
	ExportTasksHandler(w http.ResponseWriter, r *http.Request)
	HealthHandler(w http.ResponseWriter, r *http.Request)
}

type handler struct {
	meetings Meetings
}

func NewHandler(meetings Meetings) Handler {
	return &handler{meetings: meetings}
}
