package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/inspectra/internal/model"
)

func TestReportFileName(t *testing.T) {
	tests := []struct {
		name string
		meta model.Meta
		ext  string
		want string
	}{
		{"full", model.Meta{Store: "Пиццерия (Центр)", Period: "01.09-30.09"}, "md", "Пиццерия (Центр)_01.09-30.09_Отчёт.md"},
		{"store only", model.Meta{Store: "Store 7"}, ".json", "Store 7_Отчёт.json"},
		{"empty", model.Meta{}, "pdf", "Отчёт.pdf"},
		{"unsafe", model.Meta{Store: "a/b:c*?", Period: "  Октябрь   2026 "}, "md", "abc_Октябрь 2026_Отчёт.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportFileName(tt.meta, tt.ext))
		})
	}
}
