package ascii

import "testing"

func TestBox(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "single line",
			lines: []string{"Hello"},
			want:  "┌───────┐\n│ Hello │\n└───────┘\n",
		},
		{
			name:  "trailing spaces trimmed",
			lines: []string{"repair completed", "", "Files changed:  2  "},
			want: "┌───────────────────┐\n" +
				"│ repair completed  │\n" +
				"│                   │\n" +
				"│ Files changed:  2 │\n" +
				"└───────────────────┘\n",
		},
		{
			name:  "wide runes",
			lines: []string{"文書", "ab"},
			want:  "┌──────┐\n│ 文書 │\n│ ab   │\n└──────┘\n",
		},
		{
			name:  "empty",
			lines: nil,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Box(tt.lines); got != tt.want {
				t.Errorf("Box() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"docs/guide.mdx", 20, "docs/guide.mdx"},
		{"docs/guide.mdx", 10, "docs/gu..."},
		{"docs/guide.mdx", 3, "doc"},
		{"docs/guide.mdx", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.value, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
}
