package textnorm

import "testing"

func TestNormalize_FoldsLatinLookalikes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"latin key", "C5 облокотились", "С5 облокотились"},
		{"lowercase latin", "c10", "с10"},
		{"nbsp", "С5\u00a0стол", "С5 стол"},
		{"mixed word", "Tекст", "Текст"},
		{"non-mapped latin kept", "Z9 q", "Z9 q"},
		{"x marker", "x3", "х3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeForMatching(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only punctuation", " -- !! ", ""},
		{"case and punctuation", "Руки НЕ помыли, (без мыла)!", "руки не помыли без мыла"},
		{"yo folding", "Ёмкость с ёршиком", "емкость с ершиком"},
		{"decomposed yo", "е\u0308ршик", "ершик"},
		{"latin lookalikes", "Cтол, Oбработка", "стол обработка"},
		{"digits kept", "более 60 минут", "более 60 минут"},
		{"slash collapses", "продукт/лексан", "продукт лексан"},
		{"nbsp", "в\u00a0тепле", "в тепле"},
		{"kelvin sign", "\u212aот", "кот"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForMatching(tt.in); got != tt.want {
				t.Errorf("NormalizeForMatching(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"C5 x3 Облокотились на стол",
		"С10 руки не помыли [12]",
		"Ёжик в тумане, ТЕСТ; test",
		"\u212a\u0130x",
		"   ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
		m := NormalizeForMatching(in)
		if again := NormalizeForMatching(m); again != m {
			t.Errorf("NormalizeForMatching not idempotent for %q: %q != %q", in, again, m)
		}
	}
}

func TestTokenPredicates(t *testing.T) {
	if !IsNumeric("60") || IsNumeric("60м") || IsNumeric("") {
		t.Error("IsNumeric misclassified input")
	}
	if !IsWord("руки") || IsWord("15мин") || IsWord("") {
		t.Error("IsWord misclassified input")
	}
	if HasLetterOrDigit(" - , ") || !HasLetterOrDigit("—а") || !HasLetterOrDigit("7") {
		t.Error("HasLetterOrDigit misclassified input")
	}
}
