package entity

import "time"

type Status string

const (
	StatusPending     Status = "pending"
	StatusTranscribed Status = "transcribed"
	StatusFailed      Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusTranscribed, StatusFailed:
		return true
	}
	return false
}

// Meeting is one uploaded recording and everything derived from it.
// Optional fields are nil until the pipeline sets them.
type Meeting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Source         *string   `json:"source"`
	AudioReference string    `json:"file_path"`
	Status         Status    `json:"status"`
	Transcript     *string   `json:"transcript"`
	Summary        *string   `json:"summary"`
	ActionItems    []string  `json:"action_items"`
	Error          *string   `json:"error"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (m *Meeting) Clone() *Meeting {
	if m == nil {
		return nil
	}
	c := *m
	c.Source = clonePtr(m.Source)
	c.Transcript = clonePtr(m.Transcript)
	c.Summary = clonePtr(m.Summary)
	c.Error = clonePtr(m.Error)
	if m.ActionItems != nil {
		c.ActionItems = append([]string{}, m.ActionItems...)
	}
	return &c
}

type MeetingCreate struct {
	Title          string
	Source         *string
	AudioReference string
}

// MeetingUpdate carries the fields to change; nil fields are left untouched.
// ClearError removes a stored error and wins over Error.
type MeetingUpdate struct {
	Status      *Status
	Transcript  *string
	Summary     *string
	ActionItems []string
	Error       *string
	ClearError  bool
}

// Apply merges u into m and stamps UpdatedAt.
func (u MeetingUpdate) Apply(m *Meeting, now time.Time) {
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.Transcript != nil {
		m.Transcript = clonePtr(u.Transcript)
	}
	if u.Summary != nil {
		m.Summary = clonePtr(u.Summary)
	}
	if u.ActionItems != nil {
		m.ActionItems = append([]string{}, u.ActionItems...)
	}
	if u.Error != nil {
		m.Error = clonePtr(u.Error)
	}
	if u.ClearError {
		m.Error = nil
	}
	m.UpdatedAt = now
}

type IngestRequest struct {
	Title    string
	Source   string
	Filename string
	MimeType string
	Audio    []byte
}

type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	Tags      []string  `json:"tags"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskCreate struct {
	Title    string   `json:"title"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
	Status   string   `json:"status"`
}

type TaskSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
