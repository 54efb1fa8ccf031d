package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xilidan/meetings/services/meetings/entity"
)

type memoryMeeting struct {
	meeting *entity.Meeting
	seq     int
}

type memory struct {
	mu       sync.RWMutex
	opts     options
	seq      int
	meetings map[string]*memoryMeeting
	tasks    []*entity.Task
}

// NewMemory returns a process-local Storage. Records are lost on restart.
func NewMemory(opts ...Option) Storage {
	return &memory{
		opts:     newOptions(opts),
		meetings: make(map[string]*memoryMeeting),
	}
}

func (s *memory) Create(ctx context.Context, req entity.MeetingCreate) (*entity.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	m := &entity.Meeting{
		ID:             s.opts.ids.String(),
		Title:          req.Title,
		Source:         req.Source,
		AudioReference: req.AudioReference,
		Status:         entity.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, exists := s.meetings[m.ID]; exists {
		return nil, entity.NewStorageError("insert meeting", fmt.Errorf("id %s already exists", m.ID))
	}

	s.seq++
	s.meetings[m.ID] = &memoryMeeting{meeting: m.Clone(), seq: s.seq}
	return m, nil
}

func (s *memory) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.meetings[id]
	if !exists {
		return nil, entity.NewNotFound("meeting", id)
	}
	return rec.meeting.Clone(), nil
}

func (s *memory) Update(ctx context.Context, id string, upd entity.MeetingUpdate) (*entity.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.meetings[id]
	if !exists {
		return nil, entity.NewNotFound("meeting", id)
	}
	upd.Apply(rec.meeting, s.opts.now())
	return rec.meeting.Clone(), nil
}

func (s *memory) ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*memoryMeeting, 0, len(s.meetings))
	for _, rec := range s.meetings {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].meeting.CreatedAt, recs[j].meeting.CreatedAt
		if a.Equal(b) {
			return recs[i].seq > recs[j].seq
		}
		return a.After(b)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]*entity.Meeting, len(recs))
	for i, rec := range recs {
		out[i] = rec.meeting.Clone()
	}
	return out, nil
}

func (s *memory) CreateTask(ctx context.Context, req entity.TaskCreate) (*entity.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &entity.Task{
		ID:        s.opts.ids.String(),
		Title:     req.Title,
		Priority:  req.Priority,
		Tags:      append([]string{}, req.Tags...),
		Status:    req.Status,
		CreatedAt: s.opts.now(),
	}
	s.tasks = append(s.tasks, task)

	c := *task
	c.Tags = append([]string{}, task.Tags...)
	return &c, nil
}

func (s *memory) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Task, len(s.tasks))
	for i, t := range s.tasks {
		c := *t
		c.Tags = append([]string{}, t.Tags...)
		out[i] = &c
	}
	return out, nil
}

func (s *memory) Close() error {
	return nil
}
