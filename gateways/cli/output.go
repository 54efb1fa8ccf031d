package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xilidan/meetings/services/meetings/entity"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Uploaded(m *entity.Meeting) {
	fmt.Fprintf(f.w, "✅ Uploaded meeting %s (%s)\n", m.ID, m.Status)
}

func (f *Formatter) Meeting(m *entity.Meeting) {
	fmt.Fprintf(f.w, "%s %s\n", statusIcon(m.Status), m.Title)
	fmt.Fprintf(f.w, "  id:      %s\n", m.ID)
	fmt.Fprintf(f.w, "  status:  %s\n", m.Status)
	fmt.Fprintf(f.w, "  created: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"))
	if m.Error != nil {
		fmt.Fprintf(f.w, "  error:   %s\n", *m.Error)
	}
	if m.Summary != nil {
		fmt.Fprintf(f.w, "\n%s\n", strings.TrimSpace(*m.Summary))
	}
	if len(m.ActionItems) > 0 {
		fmt.Fprintf(f.w, "\n📋 Action items:\n")
		for _, item := range m.ActionItems {
			fmt.Fprintf(f.w, "  - %s\n", item)
		}
	}
}

func (f *Formatter) MeetingListHeader() {
	fmt.Fprintf(f.w, "📁 Meetings:\n\n")
}

func (f *Formatter) MeetingListItem(m *entity.Meeting) {
	fmt.Fprintf(f.w, "  %s %s  %s  %s\n", statusIcon(m.Status), m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Title)
}

func (f *Formatter) Task(t entity.TaskSummary) {
	fmt.Fprintf(f.w, "  ☑️  %s  %s\n", t.ID, t.Title)
}

func (f *Formatter) JSON(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func statusIcon(s entity.Status) string {
	switch s {
	case entity.StatusTranscribed:
		return "📝"
	case entity.StatusFailed:
		return "❌"
	default:
		return "⏳"
	}
}
