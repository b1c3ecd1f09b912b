package parsing

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name untouched", "track01.mp3", "track01.mp3"},
		{"illegal chars replaced", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"trailing dots and spaces trimmed", " title. ", "title"},
		{"only illegal input falls back", "...", "unnamed_file"},
		{"empty input falls back", "", "unnamed_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeScope(t *testing.T) {
	if got := NormalizeScope("/voice/tracks/"); got != "voice/tracks" {
		t.Errorf("got %q, want %q", got, "voice/tracks")
	}
	if got := NormalizeScope(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestJoinRelPath(t *testing.T) {
	if got := JoinRelPath("", "folder", "", "file.mp3"); got != "folder/file.mp3" {
		t.Errorf("got %q, want %q", got, "folder/file.mp3")
	}
	if got := JoinRelPath("file.wav"); got != "file.wav" {
		t.Errorf("got %q, want %q", got, "file.wav")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(500); got != "500 B/s" {
		t.Errorf("got %q", got)
	}
	if got := FormatSpeed(2 * 1024 * 1024); got != "2.0 MB/s" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeReleaseDate(t *testing.T) {
	if got := NormalizeReleaseDate("2023/06/15"); got != "2023-06-15" {
		t.Errorf("got %q, want 2023-06-15", got)
	}
	// Unparseable input passes through untouched.
	if got := NormalizeReleaseDate("coming soon"); got != "coming soon" {
		t.Errorf("got %q, want raw input", got)
	}
}
