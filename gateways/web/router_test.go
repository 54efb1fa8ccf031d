package web

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xilidan/meetings/gateways/web/handler"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/services/meetings/audio"
	"github.com/xilidan/meetings/services/meetings/entity"
	"github.com/xilidan/meetings/services/meetings/rpc"
	"github.com/xilidan/meetings/services/meetings/storage"
	"github.com/xilidan/meetings/services/meetings/usecase"
)

type transcribeFunc func(ctx context.Context, audio []byte, mimeType string) (string, error)

func (f transcribeFunc) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f(ctx, audio, mimeType)
}

const structured = "[00:00] Buenos días\nResumen:\n- Revisar presupuesto\n- Enviar acta"

func newTestRouter(t *testing.T, tr transcribeFunc, secret string) http.Handler {
	t.Helper()
	store := storage.NewMemory()
	uc := usecase.New(store, store, audio.NewLocal(t.TempDir()), tr)
	return NewRouter(handler.NewHandler(uc), RouterOptions{JWTSecret: secret, Quiet: true})
}

func uploadRequest(t *testing.T, title, filename, mimeType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meetings/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := stdjson.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func upload(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := serve(h, uploadRequest(t, "Daily", "daily.wav", "audio/wav", []byte("RIFF")))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[handler.UploadResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil, "secret")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a token, got %d", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	h := newTestRouter(t, nil, "")

	rec := serve(h, uploadRequest(t, "Daily", "daily.wav", "audio/wav", []byte("RIFF")))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[handler.UploadResponse](t, rec)
	if resp.ID == "" || resp.Status != entity.StatusPending {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	h := newTestRouter(t, nil, "")

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"unsupported format", uploadRequest(t, "Daily", "notes.txt", "text/plain", []byte("hola"))},
		{"missing file", uploadRequest(t, "Daily", "", "", nil)},
		{"missing title", uploadRequest(t, "", "daily.wav", "audio/wav", []byte("RIFF"))},
		{"empty audio", uploadRequest(t, "Daily", "daily.wav", "audio/wav", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestProcessAndExport(t *testing.T) {
	h := newTestRouter(t, func(context.Context, []byte, string) (string, error) { return structured, nil }, "")
	id := upload(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/"+id+"/process", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("process: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	m := decode[entity.Meeting](t, rec)
	if m.Status != entity.StatusTranscribed || len(m.ActionItems) != 2 {
		t.Fatalf("unexpected meeting %+v", m)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/"+id+"/export-tasks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tasks := decode[[]entity.TaskSummary](t, rec)
	if len(tasks) != 2 || tasks[0].Title != "Revisar presupuesto" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestProcessErrors(t *testing.T) {
	t.Run("service error keeps the failed meeting", func(t *testing.T) {
		h := newTestRouter(t, func(context.Context, []byte, string) (string, error) {
			return "", errors.New("quota exceeded")
		}, "")
		id := upload(t, h)

		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/"+id+"/process", nil))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[handler.ProcessErrorResponse](t, rec)
		if resp.Meeting == nil || resp.Meeting.Status != entity.StatusFailed {
			t.Errorf("expected failed meeting in body, got %+v", resp)
		}
	})

	t.Run("unavailable leaves the meeting pending", func(t *testing.T) {
		h := newTestRouter(t, func(context.Context, []byte, string) (string, error) {
			return "", entity.NewServiceUnavailable("no credentials", nil)
		}, "")
		id := upload(t, h)

		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/"+id+"/process", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/"+id, nil))
		if m := decode[entity.Meeting](t, rec); m.Status != entity.StatusPending {
			t.Errorf("expected pending, got %s", m.Status)
		}
	})

	t.Run("unknown meeting", func(t *testing.T) {
		h := newTestRouter(t, nil, "")
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/missing/process", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestExportWithoutActionItems(t *testing.T) {
	h := newTestRouter(t, nil, "")
	id := upload(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/meetings/"+id+"/export-tasks", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestList(t *testing.T) {
	h := newTestRouter(t, nil, "")
	for range 3 {
		upload(t, h)
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[[]entity.Meeting](t, rec); len(got) != 2 {
		t.Errorf("expected 2 meetings, got %d", len(got))
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad limit, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	h := newTestRouter(t, nil, "secret")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	token, err := jwt.Generate(context.Background(), "user-1", "secret")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meetings/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := serve(h, req); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with a token, got %d", rec.Code)
	}

	bad, _ := jwt.Generate(context.Background(), "user-1", "other")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/meetings/", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	if rec := serve(h, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a foreign token, got %d", rec.Code)
	}
}

type downMeetings struct {
	handler.Meetings
	err error
}

func (d downMeetings) Get(context.Context, string) (*entity.Meeting, error) {
	return nil, d.err
}

func TestUnreachableServiceIsNotReportedAsTranscriptionOutage(t *testing.T) {
	_, err := rpc.FromStatus(status.Error(codes.Unavailable, "connection error: connect: connection refused"))
	h := NewRouter(handler.NewHandler(downMeetings{err: err}), RouterOptions{Quiet: true})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/meetings/m-1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}
