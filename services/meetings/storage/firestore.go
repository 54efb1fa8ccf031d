package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xilidan/meetings/services/meetings/entity"
)

const (
	meetingsCollection = "meetings"
	tasksCollection    = "tasks"
)

type meetingDoc struct {
	Title       string    `firestore:"title"`
	Source      *string   `firestore:"source"`
	FilePath    string    `firestore:"file_path"`
	Status      string    `firestore:"status"`
	Transcript  *string   `firestore:"transcript,omitempty"`
	Summary     *string   `firestore:"summary,omitempty"`
	ActionItems []string  `firestore:"action_items,omitempty"`
	Error       *string   `firestore:"error,omitempty"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type taskDoc struct {
	Title     string    `firestore:"title"`
	Priority  string    `firestore:"priority"`
	Tags      []string  `firestore:"tags"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"created_at"`
}

// Firestore keeps meetings and tasks in two top-level collections.
type Firestore struct {
	client *firestore.Client
	opts   options
}

func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

func NewFirestore(client *firestore.Client, opts ...Option) *Firestore {
	return &Firestore{client: client, opts: newOptions(opts)}
}

func (s *Firestore) Close() error {
	return s.client.Close()
}

func (s *Firestore) Create(ctx context.Context, req entity.MeetingCreate) (*entity.Meeting, error) {
	now := s.opts.now().UTC().Truncate(time.Microsecond)
	id := s.opts.ids.String()
	doc := meetingDoc{
		Title:     req.Title,
		Source:    req.Source,
		FilePath:  req.AudioReference,
		Status:    string(entity.StatusPending),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.client.Collection(meetingsCollection).Doc(id).Create(ctx, doc); err != nil {
		return nil, entity.NewStorageError("insert meeting", err)
	}
	return doc.toEntity(id), nil
}

func (s *Firestore) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	snap, err := s.client.Collection(meetingsCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, entity.NewNotFound("meeting", id)
	}
	if err != nil {
		return nil, entity.NewStorageError("get meeting", err)
	}
	return decodeMeeting(snap)
}

// Update reads the document and writes the changed fields in one
// transaction. The returned meeting is that snapshot with the update applied,
// so a concurrent writer never leaks into the result. A missing document is
// reported as NotFound and never recreated.
func (s *Firestore) Update(ctx context.Context, id string, upd entity.MeetingUpdate) (*entity.Meeting, error) {
	now := s.opts.now().UTC().Truncate(time.Microsecond)
	updates := meetingUpdates(upd, now)
	ref := s.client.Collection(meetingsCollection).Doc(id)

	var updated *entity.Meeting
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return entity.NewNotFound("meeting", id)
		}
		if err != nil {
			return err
		}
		m, err := decodeMeeting(snap)
		if err != nil {
			return err
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}
		upd.Apply(m, now)
		updated = m
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrStorage) {
			return nil, err
		}
		return nil, entity.NewStorageError("update meeting", err)
	}
	return updated, nil
}

// meetingUpdates lists the field paths written for upd. updated_at is always
// among them.
func meetingUpdates(upd entity.MeetingUpdate, now time.Time) []firestore.Update {
	var updates []firestore.Update
	if upd.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*upd.Status)})
	}
	if upd.Transcript != nil {
		updates = append(updates, firestore.Update{Path: "transcript", Value: *upd.Transcript})
	}
	if upd.Summary != nil {
		updates = append(updates, firestore.Update{Path: "summary", Value: *upd.Summary})
	}
	if upd.ActionItems != nil {
		updates = append(updates, firestore.Update{Path: "action_items", Value: upd.ActionItems})
	}
	switch {
	case upd.ClearError:
		updates = append(updates, firestore.Update{Path: "error", Value: firestore.Delete})
	case upd.Error != nil:
		updates = append(updates, firestore.Update{Path: "error", Value: *upd.Error})
	}
	return append(updates, firestore.Update{Path: "updated_at", Value: now})
}

func (s *Firestore) ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error) {
	q := s.client.Collection(meetingsCollection).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	meetings := []*entity.Meeting{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, entity.NewStorageError("list meetings", err)
		}
		m, err := decodeMeeting(snap)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

func (s *Firestore) CreateTask(ctx context.Context, req entity.TaskCreate) (*entity.Task, error) {
	id := s.opts.ids.String()
	doc := taskDoc{
		Title:     req.Title,
		Priority:  req.Priority,
		Tags:      append([]string{}, req.Tags...),
		Status:    req.Status,
		CreatedAt: s.opts.now(),
	}
	if _, err := s.client.Collection(tasksCollection).Doc(id).Create(ctx, doc); err != nil {
		return nil, entity.NewStorageError("insert task", err)
	}
	return doc.toEntity(id), nil
}

func (s *Firestore) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	iter := s.client.Collection(tasksCollection).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var tasks []*entity.Task
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, entity.NewStorageError("list tasks", err)
		}
		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, entity.NewStorageError("decode task", err)
		}
		tasks = append(tasks, doc.toEntity(snap.Ref.ID))
	}
	return tasks, nil
}

func decodeMeeting(snap *firestore.DocumentSnapshot) (*entity.Meeting, error) {
	var doc meetingDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, entity.NewStorageError("decode meeting", err)
	}
	return doc.toEntity(snap.Ref.ID), nil
}

func (d meetingDoc) toEntity(id string) *entity.Meeting {
	m := &entity.Meeting{
		ID:             id,
		Title:          d.Title,
		Source:         d.Source,
		AudioReference: d.FilePath,
		Status:         entity.Status(d.Status),
		Transcript:     d.Transcript,
		Summary:        d.Summary,
		ActionItems:    d.ActionItems,
		Error:          d.Error,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	// An empty array round-trips as a missing field; a transcribed meeting
	// always carries a list.
	if m.Status == entity.StatusTranscribed && m.ActionItems == nil {
		m.ActionItems = []string{}
	}
	return m
}

func (d taskDoc) toEntity(id string) *entity.Task {
	return &entity.Task{
		ID:        id,
		Title:     d.Title,
		Priority:  d.Priority,
		Tags:      d.Tags,
		Status:    d.Status,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
