package storage

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/xilidan/meetings/services/meetings/entity"
)

// Runs against the Firestore emulator only.
func TestFirestoreLifecycle(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	client, err := NewFirestoreClient(ctx, "meetings-test")
	if err != nil {
		t.Fatalf("NewFirestoreClient: %v", err)
	}
	s := NewFirestore(client, WithClock(newTestClock().Now))
	defer s.Close()

	m, err := s.Create(ctx, entity.MeetingCreate{Title: "Reunion diaria", AudioReference: "gs://b/a.wav"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	failed, err := s.Update(ctx, m.ID, entity.MeetingUpdate{
		Status: entity.Ptr(entity.StatusFailed),
		Error:  entity.Ptr("quota exceeded"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if failed.Error == nil || *failed.Error != "quota exceeded" {
		t.Errorf("error = %v", failed.Error)
	}

	done, err := s.Update(ctx, m.ID, entity.MeetingUpdate{
		Status:      entity.Ptr(entity.StatusTranscribed),
		Transcript:  entity.Ptr("raw"),
		Summary:     entity.Ptr("raw"),
		ActionItems: []string{},
		ClearError:  true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if done.Error != nil || done.ActionItems == nil {
		t.Errorf("transcribed meeting = %+v", done)
	}

	stored, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(stored, done) {
		t.Errorf("Update returned %+v, stored %+v", done, stored)
	}

	if _, err := s.Update(ctx, "missing-meeting", entity.MeetingUpdate{ClearError: true}); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestNewFirestoreClientRequiresProject(t *testing.T) {
	if _, err := NewFirestoreClient(context.Background(), ""); err == nil {
		t.Error("expected error for empty project id")
	}
}

func TestMeetingUpdatesWritesOnlyGivenFields(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	paths := func(updates []firestore.Update) []string {
		var out []string
		for _, u := range updates {
			out = append(out, u.Path)
		}
		return out
	}

	failed := meetingUpdates(entity.MeetingUpdate{
		Status: entity.Ptr(entity.StatusFailed),
		Error:  entity.Ptr("quota exceeded"),
	}, now)
	if got, want := paths(failed), []string{"status", "error", "updated_at"}; !reflect.DeepEqual(got, want) {
		t.Errorf("failed update paths = %v, want %v", got, want)
	}

	done := meetingUpdates(entity.MeetingUpdate{
		Status:      entity.Ptr(entity.StatusTranscribed),
		Transcript:  entity.Ptr("raw"),
		Summary:     entity.Ptr("raw"),
		ActionItems: []string{},
		Error:       entity.Ptr("ignored"),
		ClearError:  true,
	}, now)
	if got, want := paths(done), []string{"status", "transcript", "summary", "action_items", "error", "updated_at"}; !reflect.DeepEqual(got, want) {
		t.Errorf("transcribed update paths = %v, want %v", got, want)
	}
	if done[4].Value != firestore.Delete {
		t.Errorf("error value = %v, want firestore.Delete", done[4].Value)
	}
	if done[5].Value != now {
		t.Errorf("updated_at value = %v, want %v", done[5].Value, now)
	}
}
