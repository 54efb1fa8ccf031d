package storage

import (
	"context"
	"time"

	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/services/meetings/entity"
)

// Meetings persists Meeting records. Every Update is applied atomically and
// refreshes UpdatedAt.
type Meetings interface {
	Create(ctx context.Context, req entity.MeetingCreate) (*entity.Meeting, error)
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	Update(ctx context.Context, id string, upd entity.MeetingUpdate) (*entity.Meeting, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error)
}

type Tasks interface {
	CreateTask(ctx context.Context, req entity.TaskCreate) (*entity.Task, error)
}

type Storage interface {
	Meetings
	Tasks
	ListTasks(ctx context.Context) ([]*entity.Task, error)
	Close() error
}

type options struct {
	ids gen.UUIDGenerator
	now func() time.Time
}

type Option func(*options)

// WithIDs overrides the id generator.
func WithIDs(ids gen.UUIDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{
		ids: gen.UUID(),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var (
	_ Storage = (*memory)(nil)
	_ Storage = (*SQL)(nil)
	_ Storage = (*Firestore)(nil)
)
