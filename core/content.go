package core

// ContentPart represents a part of multimodal content in a message.
type ContentPart interface {
	// ContentType returns the wire type identifier for this content part.
	ContentType() string
}

// TextPart is text content in a multimodal message.
type TextPart struct {
	Text string
}

// ContentType returns "text".
func (TextPart) ContentType() string { return "text" }

// ImagePart is image content. URL is an HTTPS URL or a base64 data URL.
type ImagePart struct {
	URL string
}

// ContentType returns "image_url".
func (ImagePart) ContentType() string { return "image_url" }

// VideoPart is video content referenced by URL (mp4).
type VideoPart struct {
	URL string
}

// ContentType returns "video_url".
func (VideoPart) ContentType() string { return "video_url" }

// FilePart is a document referenced by URL. Base64 payloads are not accepted by the service.
type FilePart struct {
	URL string
}

// ContentType returns "file_url".
func (FilePart) ContentType() string { return "file_url" }

// requiredFeature reports the model capability a content part needs.
func requiredFeature(p ContentPart) (Feature, bool) {
	switch p.(type) {
	case ImagePart, FilePart:
		return FeatureVision, true
	case VideoPart:
		return FeatureVideo, true
	}
	return "", false
}
