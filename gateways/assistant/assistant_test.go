package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xilidan/meetings/services/meetings/audio"
	"github.com/xilidan/meetings/services/meetings/entity"
	"github.com/xilidan/meetings/services/meetings/storage"
	"github.com/xilidan/meetings/services/meetings/usecase"
)

type transcribeFunc func(ctx context.Context, audio []byte, mimeType string) (string, error)

func (f transcribeFunc) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f(ctx, audio, mimeType)
}

const structured = "[00:00] Buenos días\nResumen:\n- Revisar presupuesto\n- Enviar acta"

func newTestUsecase(t *testing.T, tr transcribeFunc) usecase.Usecase {
	t.Helper()
	store := storage.NewMemory()
	return usecase.New(store, store, audio.NewLocal(t.TempDir()), tr)
}

func ingest(t *testing.T, uc usecase.Usecase, title string) string {
	t.Helper()
	m, err := uc.Ingest(context.Background(), &entity.IngestRequest{
		Title: title, Filename: "daily.wav", MimeType: "audio/wav", Audio: []byte("RIFF"),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return m.ID
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestListMeetings(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ingest(t, uc, "Planning")
	ingest(t, uc, "Daily")

	result, err := listMeetings(uc)(context.Background(), makeCallToolRequest("list_meetings", map[string]interface{}{
		"limit": float64(1),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var list []entity.Meeting
	if err := json.Unmarshal([]byte(toolText(t, result)), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Daily" {
		t.Errorf("expected the newest meeting only, got %+v", list)
	}
}

func TestGetMeeting(t *testing.T) {
	uc := newTestUsecase(t, nil)
	id := ingest(t, uc, "Daily")

	result, _ := getMeeting(uc)(context.Background(), makeCallToolRequest("get_meeting", map[string]interface{}{"id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), `"status": "pending"`) {
		t.Errorf("expected pending meeting, got %s", toolText(t, result))
	}

	result, _ = getMeeting(uc)(context.Background(), makeCallToolRequest("get_meeting", map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected an error without id")
	}

	result, _ = getMeeting(uc)(context.Background(), makeCallToolRequest("get_meeting", map[string]interface{}{"id": "missing"}))
	if !result.IsError {
		t.Error("expected an error for an unknown meeting")
	}
}

func TestProcessAndExport(t *testing.T) {
	uc := newTestUsecase(t, func(context.Context, []byte, string) (string, error) { return structured, nil })
	id := ingest(t, uc, "Daily")

	result, _ := processMeeting(uc)(context.Background(), makeCallToolRequest("process_meeting", map[string]interface{}{"id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), "2 action items") {
		t.Errorf("unexpected text %q", toolText(t, result))
	}

	result, _ = exportTasks(uc)(context.Background(), makeCallToolRequest("export_tasks", map[string]interface{}{"id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	var tasks []entity.TaskSummary
	if err := json.Unmarshal([]byte(toolText(t, result)), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Title != "Enviar acta" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestProcessUnavailable(t *testing.T) {
	uc := newTestUsecase(t, func(context.Context, []byte, string) (string, error) {
		return "", entity.NewServiceUnavailable("no credentials", nil)
	})
	id := ingest(t, uc, "Daily")

	result, _ := processMeeting(uc)(context.Background(), makeCallToolRequest("process_meeting", map[string]interface{}{"id": id}))
	if !result.IsError || !strings.Contains(toolText(t, result), "still pending") {
		t.Errorf("expected unavailable error, got %q", toolText(t, result))
	}
}

func TestExportWithoutActionItems(t *testing.T) {
	uc := newTestUsecase(t, nil)
	id := ingest(t, uc, "Daily")

	result, _ := exportTasks(uc)(context.Background(), makeCallToolRequest("export_tasks", map[string]interface{}{"id": id}))
	if !result.IsError {
		t.Errorf("expected an error for a meeting without action items, got %s", toolText(t, result))
	}
}

func TestRecentResource(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ingest(t, uc, "Daily")

	contents, err := recentResource(uc)(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "meetings://recent"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(text.Text, "Daily") {
		t.Errorf("unexpected resource contents %+v", contents)
	}
}

func TestNewServer(t *testing.T) {
	if s := NewServer(newTestUsecase(t, nil), "test"); s == nil {
		t.Fatal("expected a server")
	}
}
