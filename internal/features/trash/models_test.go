package trash

import (
	"errors"
	"testing"

	"serotonyl.ru/ecoquest/internal/common"
)

func TestParseMaterial(t *testing.T) {
	for _, m := range Materials {
		got, err := ParseMaterial(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMaterial(%q) = %q, %v", m, got, err)
		}
	}
	for _, bad := range []string{"", "glass", "Plastic", "plastic "} {
		if _, err := ParseMaterial(bad); !errors.Is(err, common.ErrUnknownMaterial) {
			t.Errorf("ParseMaterial(%q) err = %v, want ErrUnknownMaterial", bad, err)
		}
	}
}

func TestValidateContribution(t *testing.T) {
	tests := []struct {
		material string
		count    int
		wantErr  error
	}{
		{"paper", 1, nil},
		{"cans", 0, common.ErrInvalidCount},
		{"cans", -3, common.ErrInvalidCount},
		{"wood", 5, common.ErrUnknownMaterial},
	}
	for _, tt := range tests {
		_, err := ValidateContribution(tt.material, tt.count)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateContribution(%q, %d) err = %v, want %v", tt.material, tt.count, err, tt.wantErr)
		}
	}
}

func TestStatsTotalAndFilled(t *testing.T) {
	s := Stats{Plastic: 3, Cans: 7}
	if s.Total() != 10 {
		t.Fatalf("Total = %d, want 10", s.Total())
	}
	f := s.Filled()
	if len(f) != len(Materials) || f[Paper] != 0 || f[Cans] != 7 {
		t.Fatalf("Filled = %v", f)
	}
}

func TestSummarize(t *testing.T) {
	days := []DailyTrash{
		{DateStr: "2024-05-01", Counts: Stats{Plastic: 2, Paper: 1}, Total: 3, NewRegistered: 4},
		{DateStr: "2024-05-02", Counts: Stats{Plastic: 5}, Total: 5, NewRegistered: 1},
	}
	s := summarize(days)
	if s.Total != 8 || s.TotalNewRegistered != 5 {
		t.Fatalf("summary totals = %d/%d", s.Total, s.TotalNewRegistered)
	}
	if s.Totals[Plastic] != 7 || s.Totals[Paper] != 1 || s.Totals[Bottles] != 0 {
		t.Fatalf("Totals = %v", s.Totals)
	}
	if s.DateRange == nil || s.DateRange.From != "2024-05-01" || s.DateRange.To != "2024-05-02" {
		t.Fatalf("DateRange = %+v", s.DateRange)
	}

	empty := summarize(nil)
	if empty.DateRange != nil || empty.Days == nil || empty.Total != 0 {
		t.Fatalf("empty summary = %+v", empty)
	}
}
