package extract

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/inspectra/internal/model"
)

func TestExtract_InlineDescription(t *testing.T) {
	segs := Extract([]string{"С5 облокотились на стол"}, "С5")

	if len(segs) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segs))
	}
	want := model.Segment{Text: "С5 облокотились на стол", MatchText: "облокотились на стол", Count: 1}
	if segs[0] != want {
		t.Errorf("Expected %+v, got %+v", want, segs[0])
	}
}

func TestExtract_KeyMultiplierAndInlineMultiplier(t *testing.T) {
	segs := Extract([]string{"С5 х2 поверхность х3 облокотились"}, "С5")

	if len(segs) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segs))
	}
	if segs[0].Count != 6 {
		t.Errorf("Expected count 6, got %d", segs[0].Count)
	}
	if segs[0].Text != "С5*6 поверхность облокотились" {
		t.Errorf("Unexpected text %q", segs[0].Text)
	}
}

func TestExtract_CarryOverToNextLine(t *testing.T) {
	segs := Extract([]string{"С5", "some description continued"}, "С5")

	if len(segs) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segs))
	}
	if segs[0].Count != 1 || segs[0].MatchText != "some description continued" {
		t.Errorf("Unexpected segment %+v", segs[0])
	}
}

func TestExtract_CarryOverFillsAllPending(t *testing.T) {
	segs := Extract([]string{"С5 х2 С5", "", "грязный пол"}, "С5")

	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Count != 2 || segs[1].Count != 1 {
		t.Errorf("Expected counts 2 and 1, got %d and %d", segs[0].Count, segs[1].Count)
	}
	for _, s := range segs {
		if s.MatchText != "грязный пол" {
			t.Errorf("Expected pending to take next line, got %q", s.MatchText)
		}
	}
	if segs[0].Text != "С5*2 грязный пол" {
		t.Errorf("Unexpected text %q", segs[0].Text)
	}
}

func TestExtract_MarkerOnlyDescriptionWaitsForNextLine(t *testing.T) {
	for _, first := range []string{"С5 (х3)", "С5 - х3"} {
		segs := Extract([]string{first, "грязный пол"}, "С5")

		if len(segs) != 1 {
			t.Fatalf("%q: expected 1 segment, got %d: %+v", first, len(segs), segs)
		}
		want := model.Segment{Text: "С5*3 грязный пол", MatchText: "грязный пол", Count: 3}
		if segs[0] != want {
			t.Errorf("%q: expected %+v, got %+v", first, want, segs[0])
		}
	}
}

func TestExtract_CarryOverFromPrefix(t *testing.T) {
	segs := Extract([]string{"С5", "стол липкий С5 руки не помыли"}, "С5")

	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segs))
	}
	if segs[0].MatchText != "стол липкий" {
		t.Errorf("Expected prefix to complete pending, got %q", segs[0].MatchText)
	}
	if segs[1].MatchText != "руки не помыли" {
		t.Errorf("Unexpected second segment %q", segs[1].MatchText)
	}
}

func TestExtract_PendingSurvivesKeyOnlyLine(t *testing.T) {
	segs := Extract([]string{"С5", "С5", "пыль на полке"}, "С5")

	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segs))
	}
	if model.SumCounts(segs) != 2 {
		t.Errorf("Expected total 2, got %d", model.SumCounts(segs))
	}
}

func TestExtract_PendingDroppedAtEnd(t *testing.T) {
	if segs := Extract([]string{"стол", "С5"}, "С5"); len(segs) != 0 {
		t.Errorf("Expected no segments, got %+v", segs)
	}
}

func TestExtract_BracketReferences(t *testing.T) {
	lines := []string{
		"С5 [1] [2] [3] сноски",
		"С5 пол грязный [4]",
	}
	segs := Extract(lines, "С5")

	if len(segs) != 1 {
		t.Fatalf("Expected reference line to be skipped, got %d segments", len(segs))
	}
	if segs[0].MatchText != "пол грязный" {
		t.Errorf("Expected reference stripped, got %q", segs[0].MatchText)
	}
}

func TestExtract_KeyBoundaries(t *testing.T) {
	lines := []string{
		"С50 не тот ключ",
		"АС5 тоже не ключ",
		"с5 регистр не важен",
		"C5 латинская буква",
	}
	segs := Extract(lines, "С5")

	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].MatchText != "регистр не важен" || segs[1].MatchText != "латинская буква" {
		t.Errorf("Unexpected segments %+v", segs)
	}
}

func TestExtract_DistinguishesKeys(t *testing.T) {
	lines := []string{"С5 стол С10 дверь"}

	c5 := Extract(lines, "С5")
	c10 := Extract(lines, "С10")

	if len(c5) != 1 || c5[0].MatchText != "стол" {
		t.Errorf("Unexpected С5 segments %+v", c5)
	}
	if len(c10) != 1 || c10[0].MatchText != "дверь" {
		t.Errorf("Unexpected С10 segments %+v", c10)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	if segs := Extract(nil, "С5"); len(segs) != 0 {
		t.Errorf("Expected no segments for nil lines, got %d", len(segs))
	}
	if segs := Extract([]string{"С5 стол"}, "  "); segs != nil {
		t.Errorf("Expected nil for empty key, got %+v", segs)
	}
}

func TestExtract_CountsArePositive(t *testing.T) {
	lines := []string{"С5 х0 стол", "С5 * 1 пол", "С5 х7", "мусор"}
	for _, s := range Extract(lines, "С5") {
		if s.Count < 1 {
			t.Errorf("Segment %+v has non-positive count", s)
		}
		if !strings.HasPrefix(s.Text, "С5") {
			t.Errorf("Segment text %q does not start with key", s.Text)
		}
	}
}

func TestExtractPages_StampsPagesAndResetsCarry(t *testing.T) {
	pages := []model.Page{
		{Number: 2, Lines: []string{"С5 стол", "С5"}},
		{Number: 3, Lines: []string{"описание с другой страницы", "С5 х2 пол"}},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	segs := NewExtractor(logger).ExtractPages(pages, "С5")

	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Page != 2 || segs[1].Page != 3 {
		t.Errorf("Expected pages 2 and 3, got %d and %d", segs[0].Page, segs[1].Page)
	}
	if segs[1].Count != 2 {
		t.Errorf("Expected count 2, got %d", segs[1].Count)
	}
	if !strings.Contains(buf.String(), "pending occurrences dropped") {
		t.Errorf("Expected debug log for dropped pending, got %q", buf.String())
	}
}
