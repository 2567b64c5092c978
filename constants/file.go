package constants

import "strings"

// FileFormat is the coarse document class derived from a file extension.
type FileFormat string

const (
	PDF     FileFormat = "PDF"
	IMAGE   FileFormat = "IMAGE"
	UNKNOWN FileFormat = "UNKNOWN"
)

// AllowedExtensions holds the file extensions accepted for extraction.
var AllowedExtensions = map[string]FileFormat{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps an extension (with or without the dot) to its format.
func MapExtToFormat(ext string) FileFormat {
	if f, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return f
	}
	return UNKNOWN
}

// IsAllowedExt reports whether ext is one of the accepted extensions.
func IsAllowedExt(ext string) bool {
	return MapExtToFormat(ext) != UNKNOWN
}
