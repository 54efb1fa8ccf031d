package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/audio"
	"github.com/xilidan/meetings/services/meetings/consts"
	"github.com/xilidan/meetings/services/meetings/entity"
	"github.com/xilidan/meetings/services/meetings/extract"
	"github.com/xilidan/meetings/services/meetings/storage"
	"github.com/xilidan/meetings/services/meetings/transcriber"
)

const (
	maxTitleLen = 255

	// upper bound for one transcription run, independent of callers
	defaultProcessTimeout = 10 * time.Minute
)

type Usecase interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.Meeting, error)
	Process(ctx context.Context, id string) (*entity.Meeting, error)
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error)
	ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error)
}

type usecase struct {
	meetings    storage.Meetings
	tasks       storage.Tasks
	audio       audio.Store
	transcriber transcriber.Transcriber
	ids         gen.UUIDGenerator

	// one Process per meeting id at a time
	flights        singleflight.Group
	processTimeout time.Duration
}

func New(meetings storage.Meetings, tasks storage.Tasks, audio audio.Store, tr transcriber.Transcriber) Usecase {
	return &usecase{
		meetings:       meetings,
		tasks:          tasks,
		audio:          audio,
		transcriber:    tr,
		ids:            gen.UUID(),
		processTimeout: defaultProcessTimeout,
	}
}

func (u *usecase) Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.Meeting, error) {
	title := strings.TrimSpace(req.Title)
	switch {
	case !consts.AllowedMimeType(req.MimeType):
		return nil, entity.NewValidationError("unsupported content type %q, allowed: %s",
			req.MimeType, strings.Join(consts.AllowedMimeTypes(), ", "))
	case title == "":
		return nil, entity.NewValidationError("title is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		return nil, entity.NewValidationError("title is longer than %d characters", maxTitleLen)
	case len(req.Audio) == 0:
		return nil, entity.NewValidationError("audio is empty")
	case len(req.Audio) > consts.MaxAudioSize:
		return nil, entity.NewValidationError("audio is larger than %d bytes", consts.MaxAudioSize)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = consts.DefaultSource
	}

	name := u.ids.String() + consts.ExtensionFor(req.MimeType)
	ref, err := u.audio.Save(ctx, name, req.Audio)
	if err != nil {
		return nil, fmt.Errorf("save audio: %w", err)
	}

	m, err := u.meetings.Create(ctx, entity.MeetingCreate{
		Title:          title,
		Source:         &source,
		AudioReference: ref,
	})
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	logger.Info(ctx, "meeting ingested",
		"meeting_id", m.ID,
		"mime_type", req.MimeType,
		"audio_bytes", len(req.Audio),
		"filename", req.Filename)
	return m, nil
}

// Process transcribes the meeting's audio and records the outcome. Concurrent
// calls for the same id share a single run and its result. The run is detached
// from every caller's context and bounded by processTimeout; a caller that
// gives up gets its own context error while the run goes on for the others.
func (u *usecase) Process(ctx context.Context, id string) (*entity.Meeting, error) {
	ch := u.flights.DoChan(id, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.processTimeout)
		defer cancel()
		return u.process(runCtx, id)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Debug(ctx, "joined in-flight processing", "meeting_id", id)
		}
		m, _ := res.Val.(*entity.Meeting)
		return m.Clone(), res.Err
	case <-ctx.Done():
		logger.Warn(ctx, "caller left before processing finished", "meeting_id", id, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (u *usecase) process(ctx context.Context, id string) (*entity.Meeting, error) {
	log := logger.With(ctx, "meeting_id", id)

	m, err := u.meetings.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := u.audio.Load(ctx, m.AudioReference)
	if err != nil {
		log.Warn("audio not available", "ref", m.AudioReference, "error", err)
		return nil, err
	}

	mimeType := consts.MimeTypeFor(m.AudioReference)
	log.Info("processing meeting", "mime_type", mimeType, "audio_bytes", len(data))

	raw, err := u.transcriber.Transcribe(ctx, data, mimeType)
	if err != nil {
		if errors.Is(err, entity.ErrServiceUnavailable) || isContextError(err) {
			log.Warn("transcription not attempted", "error", err)
			return nil, err
		}

		detail := entity.Detail(err)
		log.Error("transcription failed", "error", detail)

		failed, uerr := u.meetings.Update(ctx, id, entity.MeetingUpdate{
			Status: entity.Ptr(entity.StatusFailed),
			Error:  &detail,
		})
		if uerr != nil {
			return nil, fmt.Errorf("record failure: %w", uerr)
		}
		return failed, entity.NewServiceError(detail)
	}

	res := extract.Extract(raw)
	updated, err := u.meetings.Update(ctx, id, entity.MeetingUpdate{
		Status:      entity.Ptr(entity.StatusTranscribed),
		Transcript:  &res.Transcript,
		Summary:     &res.Summary,
		ActionItems: res.ActionItems,
		ClearError:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("record transcription: %w", err)
	}

	log.Info("meeting transcribed", "action_items", len(res.ActionItems))
	return updated, nil
}

func (u *usecase) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	return u.meetings.Get(ctx, id)
}

func (u *usecase) ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error) {
	switch {
	case limit <= 0:
		limit = consts.DefaultListLimit
	case limit > consts.MaxListLimit:
		limit = consts.MaxListLimit
	}
	return u.meetings.ListRecent(ctx, limit)
}

// ExportTasks creates one task per action item, in order. Tasks already
// created stay in place when a later one fails; they are returned with the error.
func (u *usecase) ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error) {
	m, err := u.meetings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(m.ActionItems) == 0 {
		return nil, entity.NewNoActionItems(id)
	}

	summaries := make([]entity.TaskSummary, 0, len(m.ActionItems))
	for i, item := range m.ActionItems {
		task, err := u.tasks.CreateTask(ctx, entity.TaskCreate{
			Title:    item,
			Priority: consts.DefaultPriority,
			Tags:     []string{consts.DefaultTag},
			Status:   consts.DefaultTaskStatus,
		})
		if err != nil {
			logger.Error(ctx, "task export stopped", "meeting_id", id, "created", len(summaries), "error", err)
			return summaries, fmt.Errorf("export action item %d: %w", i+1, err)
		}
		summaries = append(summaries, entity.TaskSummary{ID: task.ID, Title: task.Title})
	}

	logger.Info(ctx, "tasks exported", "meeting_id", id, "count", len(summaries))
	return summaries, nil
}

// A context error means the run was cut short, not that the service failed,
// so nothing is recorded for it.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
