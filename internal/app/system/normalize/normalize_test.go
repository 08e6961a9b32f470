package normalize

import "testing"

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"01012345678", "01012345678"},
		{"010-1234-5678", "01012345678"},
		{"010 1234 5678", "01012345678"},
		{"  010.1234.5678  ", "01012345678"},
		{"+82 10-1234-5678", "+821012345678"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Phone(tt.input)
			if got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Haeun Kim", "Haeun Kim"},
		{"  Haeun Kim  ", "Haeun Kim"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
