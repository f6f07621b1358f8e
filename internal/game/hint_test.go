package game

import (
	"reflect"
	"testing"
)

func TestHint(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   []Mark
	}{
		{
			name:   "all correct",
			guess:  "apple",
			target: "apple",
			want:   []Mark{MarkCorrect, MarkCorrect, MarkCorrect, MarkCorrect, MarkCorrect},
		},
		{
			name:   "all absent",
			guess:  "truck",
			target: "mosey",
			want:   []Mark{MarkAbsent, MarkAbsent, MarkAbsent, MarkAbsent, MarkAbsent},
		},
		{
			name:   "present letters",
			guess:  "pleat",
			target: "apple",
			want:   []Mark{MarkPresent, MarkPresent, MarkPresent, MarkPresent, MarkAbsent},
		},
		{
			name:   "duplicate guess letter consumed once",
			guess:  "sassy",
			target: "sissy",
			want:   []Mark{MarkCorrect, MarkAbsent, MarkCorrect, MarkCorrect, MarkCorrect},
		},
		{
			name:   "duplicate not double counted",
			guess:  "speed",
			target: "abide",
			want:   []Mark{MarkAbsent, MarkAbsent, MarkPresent, MarkAbsent, MarkPresent},
		},
		{
			name:   "correct consumes before present",
			guess:  "eagle",
			target: "flame",
			want:   []Mark{MarkAbsent, MarkPresent, MarkAbsent, MarkPresent, MarkCorrect},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hint(tt.guess, tt.target)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Hint(%q, %q) = %v, want %v", tt.guess, tt.target, got, tt.want)
			}
		})
	}
}

func TestHintDeterministic(t *testing.T) {
	a := Hint("crate", "trace")
	b := Hint("crate", "trace")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated calls disagree: %v vs %v", a, b)
	}
}

func TestIsAlpha(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"apple", true},
		{"Apple", false},
		{"app1e", false},
		{"app e", false},
		{"année", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := isAlpha(tt.in); got != tt.want {
			t.Errorf("isAlpha(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
