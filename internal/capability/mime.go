package capability

import (
	"mime"
	"path/filepath"
	"strings"
)

// mimeTypes covers extensions the platform MIME table often lacks.
var mimeTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".yaml":     "application/yaml",
	".yml":      "application/yaml",
	".json":     "application/json",
	".csv":      "text/csv",
	".go":       "text/x-go",
	".ts":       "text/typescript",
	".js":       "text/javascript",
	".html":     "text/html",
	".svg":      "image/svg+xml",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".webp":     "image/webp",
	".pdf":      "application/pdf",
}

// GuessMIME returns the media type for path from its extension, without
// parameters. Unknown extensions are application/octet-stream.
func GuessMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if media, _, err := mime.ParseMediaType(t); err == nil {
			return media
		}
		return t
	}
	return "application/octet-stream"
}

// IsTextMIME reports whether content of this type is served as text
// rather than a base64 blob.
func IsTextMIME(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/yaml", "application/xml", "application/javascript", "image/svg+xml":
		return true
	}
	return strings.HasSuffix(mimeType, "+json") || strings.HasSuffix(mimeType, "+xml")
}
