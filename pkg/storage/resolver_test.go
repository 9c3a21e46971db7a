package storage

import (
	"context"
	"testing"
)

func TestLocalResolver(t *testing.T) {
	r := NewLocalResolver("http://localhost:8080/data/")
	got, err := r.Resolve(context.Background(), "210101_083000_084500_F.mp4")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "http://localhost:8080/data/210101_083000_084500_F.mp4"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestValidateVideoFileType(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		want        bool
	}{
		{"video/mp4", "clip.mp4", true},
		{"", "clip.MP4", true},
		{"video/quicktime", "clip.mov", true},
		{"image/png", "shot.png", false},
		{"", "notes.txt", false},
	}
	for _, tt := range cases {
		if got := ValidateVideoFileType(tt.contentType, tt.filename); got != tt.want {
			t.Errorf("ValidateVideoFileType(%q, %q) = %v, want %v", tt.contentType, tt.filename, got, tt.want)
		}
	}
}
