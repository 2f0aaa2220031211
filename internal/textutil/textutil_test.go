package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain.webp ", "plain.webp"},
		{"a/b\\c:d*e.png", "a-b-c-d-e.png"},
		{`what?"<>|.jpg`, "what.jpg"},
		{"tab\there.png", "tabhere.png"},
		{"..hidden..", "hidden"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"holiday_beach-sunset.png", "Holiday Beach Sunset"},
		{"/tmp/photos/IMG_2041.JPG", "IMG 2041"},
		{"summer.2024.final.webp", "Summer 2024 Final"},
		{".png", "Png"},
		{"", "Untitled"},
		{"___.gif", "Untitled"},
	}
	for _, tt := range tests {
		if got := DisplayTitle(tt.in); got != tt.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"conversion failed badly", 10, "conversio…"},
		{"héllo wörld", 5, "héll…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
