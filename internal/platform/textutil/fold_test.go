package textutil

import "testing"

func TestFoldDiacritics(t *testing.T) {
	cases := map[string]string{
		"Cumpleaños":   "Cumpleanos",
		"Promoción":    "Promocion",
		"café":         "cafe",
		"sin acentos":  "sin acentos",
		"":             "",
		"ñandú ÑANDÚ":  "nandu NANDU",
	}
	for input, expected := range cases {
		if got := FoldDiacritics(input); got != expected {
			t.Errorf("FoldDiacritics(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"Cumpleaños Anhelo": "CUMPLEANOS-ANHELO",
		"  2x1 Smash!  ":    "2X1-SMASH",
		"promo--de  verano": "PROMO-DE-VERANO",
	}
	for input, expected := range cases {
		if got := CanonicalKey(input); got != expected {
			t.Errorf("CanonicalKey(%q) = %q, expected %q", input, got, expected)
		}
	}
}
