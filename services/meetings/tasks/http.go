// Package tasks creates tasks in a remote task service over HTTP.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/xilidan/meetings/config/meetings"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/entity"
)

const requestTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg *config.ServiceConfig) *Client {
	return NewWithBaseURL(fmt.Sprintf("http://%s:%d", cfg.Url, cfg.Port))
}

func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// CreateTask posts one task and decodes the created record.
func (c *Client) CreateTask(ctx context.Context, req entity.TaskCreate) (*entity.Task, error) {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, entity.NewStorageError("marshal task", err)
	}

	url := c.baseURL + "/api/v1/tasks"
	log.Debug("sending POST request to task service", slog.String("url", url), slog.String("title", req.Title))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, entity.NewStorageError("build task request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("task service request failed", slog.String("error", err.Error()), slog.String("url", url))
		return nil, entity.NewStorageError("send task request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error("task service returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(msg)))
		return nil, entity.NewStorageError("create task",
			fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(msg)))
	}

	var task entity.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, entity.NewStorageError("decode task response", err)
	}
	if task.ID == "" {
		return nil, entity.NewStorageError("create task", fmt.Errorf("task service returned no id"))
	}
	return &task, nil
}
