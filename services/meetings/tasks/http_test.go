package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/xilidan/meetings/services/meetings/entity"
)

func TestCreateTask(t *testing.T) {
	var got entity.TaskCreate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entity.Task{ID: "t-1", Title: got.Title, Priority: got.Priority, Tags: got.Tags, Status: got.Status})
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	task, err := c.CreateTask(context.Background(), entity.TaskCreate{
		Title:    "Enviar acta",
		Priority: "Important",
		Tags:     []string{"work"},
		Status:   "todo",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != "t-1" || task.Title != "Enviar acta" {
		t.Errorf("task = %+v", task)
	}
	if !reflect.DeepEqual(got.Tags, []string{"work"}) || got.Priority != "Important" {
		t.Errorf("request = %+v", got)
	}
}

func TestCreateTaskServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewWithBaseURL(srv.URL).CreateTask(context.Background(), entity.TaskCreate{Title: "x"})
	if !errors.Is(err, entity.ErrStorage) {
		t.Errorf("err = %v, want StorageError", err)
	}
}

func TestCreateTaskMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"x"}`))
	}))
	defer srv.Close()

	_, err := NewWithBaseURL(srv.URL).CreateTask(context.Background(), entity.TaskCreate{Title: "x"})
	if !errors.Is(err, entity.ErrStorage) {
		t.Errorf("err = %v, want StorageError", err)
	}
}
