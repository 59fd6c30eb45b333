package upload

import "strings"

// DefaultContentType is returned for unknown or missing extensions
const DefaultContentType = "application/octet-stream"

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ResolveMIME maps a filename to a content type using its last extension
func ResolveMIME(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return DefaultContentType
	}
	if ct, ok := mimeTypes[strings.ToLower(filename[i+1:])]; ok {
		return ct
	}
	return DefaultContentType
}
