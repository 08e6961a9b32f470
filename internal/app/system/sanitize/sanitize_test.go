package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "see you at 7", "see you at 7"},
		{"strips tags", "<b>hello</b>", "hello"},
		{"strips script", `<script>alert("x")</script>hi`, "hi"},
		{"trims space", "  hello  ", "hello"},
		{"keeps unicode", "모임 7시에 봐요", "모임 7시에 봐요"},
		{"unescapes entities", "a < b & c", "a < b & c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
