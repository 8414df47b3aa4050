package units

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func findRow(t *testing.T, rows []Row, symbol string) Row {
	t.Helper()
	for _, r := range rows {
		if r.Symbol == symbol {
			return r
		}
	}
	t.Fatalf("row for symbol %q not found in %#v", symbol, rows)
	return Row{}
}

func TestConvertTimeMinutes(t *testing.T) {
	rows, err := Convert("time", "min", 2)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	if got := findRow(t, rows, "s"); got.Value != "120" {
		t.Fatalf("second row = %q, want %q", got.Value, "120")
	}
	if got := findRow(t, rows, "h"); got.Value != "0.03333333" {
		t.Fatalf("hour row = %q, want %q", got.Value, "0.03333333")
	}
	if got := findRow(t, rows, "min"); got.Value != "2" {
		t.Fatalf("minute row = %q, want %q", got.Value, "2")
	}
}

func TestConvertRowOrderMatchesCategory(t *testing.T) {
	rows, err := Convert("length", "m", 1)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	cats := Categories()
	var cat *Category
	for i := range cats {
		if cats[i].Name == "length" {
			cat = &cats[i]
		}
	}
	if cat == nil {
		t.Fatal("length category not found")
	}
	if len(rows) != len(cat.Units) {
		t.Fatalf("row count = %d, want %d", len(rows), len(cat.Units))
	}
	for i, u := range cat.Units {
		if rows[i].Symbol != u.Symbol {
			t.Fatalf("rows[%d].Symbol = %q, want %q", i, rows[i].Symbol, u.Symbol)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	for _, cat := range Categories() {
		for _, u := range cat.Units {
			value := 3.7
			base := value * u.Factor
			back := base / u.Factor
			if rel := math.Abs(back-value) / value; rel > 1e-9 {
				t.Fatalf("%s/%s round trip drift %g", cat.Name, u.Symbol, rel)
			}
		}
	}
}

func TestConvertUnknownCategory(t *testing.T) {
	if _, err := Convert("temperature", "K", 1); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestConvertUnknownUnit(t *testing.T) {
	if _, err := Convert("time", "fortnight", 1); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestConvertCategoryNameIsCaseInsensitive(t *testing.T) {
	if _, err := Convert("  Time ", "s", 1); err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{120, "120"},
		{2.5, "2.5"},
		{1.0 / 30, "0.03333333"},
		{0.125, "0.125"},
		{1e6, "1.00000000e+06"},
		{5497558138880, "5.49755814e+12"},
		{0.00005, "5.00000000e-05"},
		{-42, "-42"},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.in); got != tc.want {
			t.Fatalf("FormatValue(%g) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSymbolsUniquePerCategory(t *testing.T) {
	for _, cat := range Categories() {
		seen := map[string]bool{}
		for _, u := range cat.Units {
			if seen[u.Symbol] {
				t.Fatalf("duplicate symbol %q in category %q", u.Symbol, cat.Name)
			}
			seen[u.Symbol] = true
			if strings.TrimSpace(u.Symbol) == "" {
				t.Fatalf("empty symbol in category %q", cat.Name)
			}
		}
	}
}
