package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractStructuredResponse(t *testing.T) {
	raw := "[00:01] Hola\nResumen:\n- Revisar presupuesto\n• Enviar acta\n* Agendar demo\nNotas finales"

	got := Extract(raw)

	if got.Transcript != raw {
		t.Error("transcript must be the raw text")
	}
	if got.Summary != raw {
		t.Error("summary must be the whole text when the marker is present")
	}
	want := []string{"Revisar presupuesto", "Enviar acta", "Agendar demo"}
	if !reflect.DeepEqual(got.ActionItems, want) {
		t.Errorf("action items = %q, want %q", got.ActionItems, want)
	}
}

func TestSummaryTruncatesWithoutMarker(t *testing.T) {
	raw := strings.Repeat("ñ", 600)
	s := Summary(raw)
	if n := len([]rune(s)); n != 500 {
		t.Errorf("summary has %d runes, want 500", n)
	}

	short := "solo texto"
	if Summary(short) != short {
		t.Error("short text should be returned whole")
	}
}

func TestActionItemsEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"none", "sin viñetas\nnada", []string{}},
		{"empty input", "", []string{}},
		{"indented bullet", "   - Tarea uno  ", []string{"Tarea uno"}},
		{"stacked markers", "-* • Tarea", []string{"Tarea"}},
		{"bare marker kept empty", "-", []string{""}},
		{"crlf lines", "- uno\r\n- dos\r- tres", []string{"uno", "dos", "tres"}},
		{"duplicates kept", "- a\n- a", []string{"a", "a"}},
		{"bullet mid line ignored", "texto - no", []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ActionItems(c.raw)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("ActionItems(%q) = %q, want %q", c.raw, got, c.want)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	raw := "Resumen\n- a\n- b"
	if !reflect.DeepEqual(Extract(raw), Extract(raw)) {
		t.Error("Extract is not deterministic")
	}
}
