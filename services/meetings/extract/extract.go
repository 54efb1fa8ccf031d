// Package extract turns the raw text returned by the transcription model
// into a transcript, a summary and a list of action items.
package extract

import (
	"strings"

	"github.com/xilidan/meetings/services/meetings/consts"
)

type Result struct {
	Transcript  string
	Summary     string
	ActionItems []string
}

const bulletChars = "-•*"

// Extract is pure and deterministic. Action items are returned in order,
// never nil, and without deduplication.
func Extract(raw string) Result {
	return Result{
		Transcript:  raw,
		Summary:     Summary(raw),
		ActionItems: ActionItems(raw),
	}
}

func Summary(raw string) string {
	if strings.Contains(raw, consts.SummaryMarker) {
		return raw
	}
	runes := []rune(raw)
	if len(runes) <= consts.SummaryFallbackLen {
		return raw
	}
	return string(runes[:consts.SummaryFallbackLen])
}

func ActionItems(raw string) []string {
	items := []string{}
	for _, line := range splitLines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || !strings.ContainsRune(bulletChars, []rune(line)[0]) {
			continue
		}
		item := strings.TrimLeft(line, bulletChars+" ")
		items = append(items, strings.TrimSpace(item))
	}
	return items
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
