package core

import "testing"

func TestContentTypes(t *testing.T) {
	tests := []struct {
		part ContentPart
		want string
	}{
		{TextPart{Text: "x"}, "text"},
		{ImagePart{URL: "https://example.com/a.png"}, "image_url"},
		{VideoPart{URL: "https://example.com/a.mp4"}, "video_url"},
		{FilePart{URL: "https://example.com/a.pdf"}, "file_url"},
	}
	for _, tt := range tests {
		if got := tt.part.ContentType(); got != tt.want {
			t.Errorf("%T.ContentType() = %q, want %q", tt.part, got, tt.want)
		}
	}
}

func TestRequiredFeature(t *testing.T) {
	tests := []struct {
		part  ContentPart
		want  Feature
		needs bool
	}{
		{TextPart{Text: "x"}, "", false},
		{ImagePart{}, FeatureVision, true},
		{FilePart{}, FeatureVision, true},
		{VideoPart{}, FeatureVideo, true},
	}
	for _, tt := range tests {
		got, needs := requiredFeature(tt.part)
		if got != tt.want || needs != tt.needs {
			t.Errorf("requiredFeature(%T) = %q, %v; want %q, %v", tt.part, got, needs, tt.want, tt.needs)
		}
	}
}
