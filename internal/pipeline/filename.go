package pipeline

import (
	"regexp"
	"strings"

	"github.com/ppiankov/inspectra/internal/model"
)

const reportFileWord = "Отчёт"

var (
	unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}\s_\-().]+`)
	fileSpaces      = regexp.MustCompile(`\s+`)
)

// ReportFileName builds "<store>_<period>_Отчёт.<ext>" with unsafe characters removed.
// Empty labels are left out.
func ReportFileName(meta model.Meta, ext string) string {
	var parts []string
	if s := strings.TrimSpace(meta.Store); s != "" {
		parts = append(parts, s)
	}
	if p := strings.TrimSpace(meta.Period); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, reportFileWord)

	name := unsafeFileChars.ReplaceAllString(strings.Join(parts, "_"), "")
	name = strings.TrimSpace(fileSpaces.ReplaceAllString(name, " "))
	if name == "" {
		name = reportFileWord
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
