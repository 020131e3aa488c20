package core

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	// images
	".apng": "image/apng",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".heic": "image/heic",
	".heif": "image/heif",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",

	// video
	".3gp":  "video/3gpp",
	".avi":  "video/x-msvideo",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".ogv":  "video/ogg",
	".webm": "video/webm",

	// audio
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",

	// documents and data
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",

	// archives
	".7z":  "application/x-7z-compressed",
	".gz":  "application/gzip",
	".rar": "application/vnd.rar",
	".tar": "application/x-tar",
	".zip": "application/zip",

	// web
	".css":   "text/css",
	".htm":   "text/html",
	".html":  "text/html",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".wasm":  "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentTypeByKey maps the key's extension to a MIME type. The table is
// fixed so the answer does not depend on the host's mime.types. It returns ""
// when the extension is missing or unknown.
func ContentTypeByKey(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return ""
	}
	return contentTypes[ext]
}
