package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/inspectra/internal/model"
)

func codes(issues []Issue) map[IssueCode]int {
	m := make(map[IssueCode]int)
	for _, i := range issues {
		m[i.Code]++
	}
	return m
}

func TestLint_Clean(t *testing.T) {
	rs := model.RuleSet{
		{Title: "Облокачивание", Keywords: []string{"облокотились", "облокачиваются"}},
		{Title: "Гигиена", Keywords: []string{"руки не помыли"}},
	}
	if issues := Lint(rs); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
}

func TestLint_Findings(t *testing.T) {
	rs := model.RuleSet{
		{Title: "Мебель", Keywords: []string{"стол", "Стол!", "...", "на"}},
		{Title: "Пустая"},
		{Title: "Поверхности", Keywords: []string{"СТОЛ", "полка"}},
		{Title: "Мебель", Keywords: []string{"стул"}},
	}

	got := codes(Lint(rs))
	want := map[IssueCode]int{
		IssueDuplicateKeyword: 1,
		IssueEmptyKeyword:     1,
		IssueBroadKeyword:     1,
		IssueNoKeywords:       1,
		IssueShadowedKeyword:  1,
		IssueDuplicateTitle:   1,
	}
	for code, n := range want {
		if got[code] != n {
			t.Errorf("Expected %d %s issue(s), got %d", n, code, got[code])
		}
	}
}

func TestLint_ShadowMessageNamesFirstRule(t *testing.T) {
	rs := model.RuleSet{
		{Title: "А", Keywords: []string{"пыль"}},
		{Title: "Б", Keywords: []string{"Пыль"}},
	}
	issues := Lint(rs)
	if len(issues) != 1 || issues[0].Code != IssueShadowedKeyword || issues[0].Rule != "Б" {
		t.Fatalf("Unexpected issues %v", issues)
	}
	if issues[0].Severity != model.SeverityWarning {
		t.Errorf("Expected warning, got %s", issues[0].Severity)
	}
}

func TestCountBySeverity(t *testing.T) {
	issues := []Issue{{Severity: model.SeverityInfo}, {Severity: model.SeverityWarning}, {Severity: model.SeverityInfo}}
	counts := CountBySeverity(issues)
	if counts[model.SeverityInfo] != 2 || counts[model.SeverityWarning] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

type fakeReader struct {
	files map[string]string
	delay time.Duration
}

func (f fakeReader) Read(ctx context.Context, location string) ([]byte, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	data, ok := f.files[location]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(data), nil
}

func TestValidator_Validate(t *testing.T) {
	r := fakeReader{files: map[string]string{
		"c5.txt":  "Мебель\nстол\n\nПустая\n",
		"c10.txt": "Гигиена\nруки не помыли\n",
	}}
	keys := []model.KeyConfig{
		{Key: "С5", Rules: "c5.txt"},
		{Key: "С10", Rules: "c10.txt"},
		{Key: "С7"},
		{Key: "С9", Rules: "missing.txt"},
	}

	results := NewValidator(r, 2).Validate(context.Background(), keys)
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}

	if results[0].Key != "С5" || len(results[0].Rules) != 2 || len(results[0].Issues) != 1 {
		t.Errorf("Unexpected С5 result %+v", results[0])
	}
	if results[1].Key != "С10" || len(results[1].Rules) != 1 || results[1].Err != nil {
		t.Errorf("Unexpected С10 result %+v", results[1])
	}
	if results[2].Err != nil || len(results[2].Rules) != 0 {
		t.Errorf("Key without rules must not fail: %+v", results[2])
	}
	if results[3].Err == nil || results[3].Error == "" {
		t.Errorf("Expected error for missing rules: %+v", results[3])
	}
}

func TestValidator_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fakeReader{files: map[string]string{"c5.txt": "Мебель\nстол\n"}, delay: time.Second}
	results := NewValidator(r, 1).Validate(ctx, []model.KeyConfig{{Key: "С5", Rules: "c5.txt"}})

	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", results[0].Err)
	}
}
