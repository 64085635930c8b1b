package extract

import "testing"

func TestParseMultipliers(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantText string
		wantMul  int
	}{
		{"cyrillic marker", "поверхность х3 облокотились", "поверхность облокотились", 3},
		{"latin marker", "поверхность x3 облокотились", "поверхность облокотились", 3},
		{"multiplication sign with space", "стол × 2", "стол", 2},
		{"asterisk glued to word", "стол*4 грязный", "стол грязный", 4},
		{"product of markers", "х2 стол х3", "стол", 6},
		{"value one is not a multiplier", "х1 проверка", "х1 проверка", 1},
		{"value zero is not a multiplier", "проверка х0", "проверка х0", 1},
		{"no markers", "руки не помыли", "руки не помыли", 1},
		{"marker inside word", "их2 раза", "их2 раза", 1},
		{"digits run into word count but stay", "х3шт стол", "х3шт стол", 3},
		{"trailing punctuation", "стол х2, грязный", "стол , грязный", 2},
		{"large value", "стол x1000", "стол", 1000},
		{"marker in parentheses", "(х3)", "( )", 3},
		{"oversized value is clamped", "стол х99999999999999999999", "стол", 1 << 30},
		{"empty", "", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMultipliers(tt.in)
			if got.Text != tt.wantText || got.Multiplier != tt.wantMul {
				t.Errorf("ParseMultipliers(%q) = {%q, %d}, want {%q, %d}",
					tt.in, got.Text, got.Multiplier, tt.wantText, tt.wantMul)
			}
		})
	}
}

func TestParseMultipliers_UnchangedWithoutMultiplier(t *testing.T) {
	inputs := []string{"х1 проверка", "  двойной  пробел ", "С5 стол"}
	for _, in := range inputs {
		if got := ParseMultipliers(in); got.Multiplier == 1 && got.Text != in {
			t.Errorf("ParseMultipliers(%q) changed text to %q with multiplier 1", in, got.Text)
		}
	}
}
