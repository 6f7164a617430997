package mimetypes

import (
	"mime"
	"path/filepath"
	"strings"
)

type MIME string

const (
	Unknown  MIME = "unknown"
	TextHTML MIME = "text/html"
	TextCSS  MIME = "text/css"
	ImagePNG MIME = "image/png"
)

// byExtension only lists the asset types the intake tier serves.
// Any other extension is served without an explicit Content-Type.
var byExtension = map[string]MIME{
	".html": TextHTML,
	".css":  TextCSS,
	".png":  ImagePNG,
}

// ByExtension returns the content type for the file extension of path.
func ByExtension(path string) (MIME, bool) {
	m, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Unknown, false
	}
	return m, true
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}
