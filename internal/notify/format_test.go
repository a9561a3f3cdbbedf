package notify

import "testing"

func TestFormatMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Agent"},
		{"agent", "Agent"},
		{"deep_research", "Deep Research"},
		{"code-review", "Code Review"},
		{"plan mode", "Plan Mode"},
		{"multi_word-mixed case", "Multi Word Mixed Case"},
	}
	for _, tt := range tests {
		if got := FormatMode(tt.in); got != tt.want {
			t.Errorf("FormatMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatModelID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Assistant"},
		{"claude-3-5-sonnet", "Claude 3.5 Sonnet"},
		{"gpt-4", "Gpt 4"},
		{"claude-sonnet-4-20250514", "Claude Sonnet 4.20250514"},
		{"gemini_1_5_pro", "Gemini 1.5 Pro"},
		{"o3", "O3"},
		{"llama-3-8b", "Llama 3 8b"},
	}
	for _, tt := range tests {
		if got := FormatModelID(tt.in); got != tt.want {
			t.Errorf("FormatModelID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
