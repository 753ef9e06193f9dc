package catalog

import (
	"testing"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/trash"
)

func TestLevelRange(t *testing.T) {
	tests := []struct {
		chapter     int
		first, last int
	}{
		{1, 1, 5},
		{2, 6, 10},
		{4, 16, 20},
	}
	for _, tt := range tests {
		first, last := LevelRange(tt.chapter)
		if first != tt.first || last != tt.last {
			t.Errorf("LevelRange(%d) = %d..%d, want %d..%d", tt.chapter, first, last, tt.first, tt.last)
		}
	}
}

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name string
		in   ProductInput
		ok   bool
	}{
		{"plain", ProductInput{Name: "帽子", Price: 100}, true},
		{"free with requirement", ProductInput{Name: "袋子", RecycleRequirement: Requirement{trash.Paper: 3}}, true},
		{"blank name", ProductInput{Name: "  ", Price: 1}, false},
		{"negative price", ProductInput{Name: "x", Price: -1}, false},
		{"unknown material", ProductInput{Name: "x", RecycleRequirement: Requirement{"glass": 1}}, false},
		{"zero count", ProductInput{Name: "x", RecycleRequirement: Requirement{trash.Cans: 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !common.Is(err, common.KindInvalidArgument) {
				t.Fatalf("err = %v, want invalid argument", err)
			}
		})
	}
}

func TestValidateLevel(t *testing.T) {
	tests := []struct {
		name      string
		in        LevelInput
		reqExists bool
		ok        bool
	}{
		{"first level", LevelInput{Sequence: 1, ChapterSequence: 1, Name: "a"}, false, true},
		{"with requirement", LevelInput{Sequence: 7, ChapterSequence: 2, Name: "b", UnlockRequirement: 6}, true, true},
		{"outside chapter", LevelInput{Sequence: 6, ChapterSequence: 1, Name: "c"}, false, false},
		{"self requirement", LevelInput{Sequence: 3, ChapterSequence: 1, Name: "d", UnlockRequirement: 3}, true, false},
		{"missing requirement", LevelInput{Sequence: 3, ChapterSequence: 1, Name: "e", UnlockRequirement: 2}, false, false},
		{"blank name", LevelInput{Sequence: 2, ChapterSequence: 1}, false, false},
		{"later level without requirement", LevelInput{Sequence: 7, ChapterSequence: 2, Name: "f"}, false, false},
		{"negative requirement", LevelInput{Sequence: 2, ChapterSequence: 1, Name: "g", UnlockRequirement: -1}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLevel(tt.in, tt.reqExists)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !common.Is(err, common.KindInvalidArgument) {
				t.Fatalf("err = %v, want invalid argument", err)
			}
		})
	}
}
