package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/consts"
	"github.com/xilidan/meetings/services/meetings/entity"
)

// multipart overhead allowed on top of the audio itself
const formOverhead = 1 << 20

type (
	UploadResponse struct {
		ID     string        `json:"id"`
		Status entity.Status `json:"status"`
	}

	ProcessErrorResponse struct {
		Error   string          `json:"error"`
		Meeting *entity.Meeting `json:"meeting,omitempty"`
	}
)

func (h *handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, consts.MaxAudioSize+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			json.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("audio is larger than %d bytes", consts.MaxAudioSize))
			return
		}
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("failed to read file: %w", err))
		return
	}

	m, err := h.meetings.Ingest(r.Context(), &entity.IngestRequest{
		Title:    r.FormValue("title"),
		Source:   r.FormValue("source"),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Audio:    data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	json.WriteJSON(w, http.StatusCreated, UploadResponse{ID: m.ID, Status: m.Status})
}

func (h *handler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	m, err := h.meetings.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if entity.KindOf(err) == entity.KindServiceError {
			json.WriteJSON(w, http.StatusBadGateway, ProcessErrorResponse{
				Error:   "transcription failed: " + entity.Detail(err),
				Meeting: m,
			})
			return
		}
		writeError(w, r, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	m, err := h.meetings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, m)
}

func (h *handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			json.WriteError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	meetings, err := h.meetings.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, meetings)
}

func (h *handler) ExportTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.meetings.ExportTasks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, tasks)
}

func (h *handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	json.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err
	switch code {
	case http.StatusServiceUnavailable:
		msg = fmt.Errorf("transcription service temporarily unavailable")
	case http.StatusInternalServerError:
		logger.ErrorErr(r.Context(), "request failed", err, "path", r.URL.Path)
		msg = fmt.Errorf("internal error")
	}
	json.WriteError(w, code, msg)
}

func statusFor(err error) int {
	switch entity.KindOf(err) {
	case entity.KindValidation, entity.KindNoActionItems:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindContentMissing:
		return http.StatusGone
	case entity.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case entity.KindServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
