package interactive

import (
	"testing"

	"github.com/ump-ci/umpci-go/pkg/ci"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		input    string
		expected uint8
		wantErr  bool
	}{
		// Plain MIDI numbers
		{"60", 60, false},
		{"0", 0, false},
		{"127", 127, false},
		{"128", 0, true},

		// Note names, middle C = C4
		{"C4", 60, false},
		{"c4", 60, false},
		{"A4", 69, false},
		{"C-1", 0, false},
		{"G9", 127, false},

		// Accidentals
		{"C#4", 61, false},
		{"c#4", 61, false},
		{"F#3", 54, false},
		{"Bb2", 46, false},
		{"B2", 47, false},
		{"Eb3", 51, false},

		// Out of range or malformed
		{"G#9", 0, true},
		{"Cb-1", 0, true},
		{"H4", 0, true},
		{"C", 0, true},
		{"C99", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseNote(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseNote(%q) expected error, got %d", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseNote(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("parseNote(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestParseMUID(t *testing.T) {
	got, err := parseMUID("1234567")
	if err != nil {
		t.Fatalf("parseMUID returned error: %v", err)
	}
	if got != ci.MUID(0x1234567) {
		t.Errorf("parseMUID = %v, want %v", got, ci.MUID(0x1234567))
	}

	// 0x prefix and lowercase hex both accepted
	got, err = parseMUID("0x7f7f7f7f")
	if err != nil {
		t.Fatalf("parseMUID returned error: %v", err)
	}
	if got != ci.BroadcastMUID {
		t.Errorf("parseMUID = %v, want broadcast", got)
	}

	if _, err := parseMUID("not-a-muid"); err == nil {
		t.Error("parseMUID expected error for garbage input")
	}
}

func TestFormatCtrlIndex(t *testing.T) {
	if got := formatCtrlIndex([]int{74}); got != "74" {
		t.Errorf("formatCtrlIndex = %q, want %q", got, "74")
	}
	if got := formatCtrlIndex([]int{0, 1}); got != "0/1" {
		t.Errorf("formatCtrlIndex = %q, want %q", got, "0/1")
	}
	if got := formatCtrlIndex(nil); got != "-" {
		t.Errorf("formatCtrlIndex = %q, want %q", got, "-")
	}
}
