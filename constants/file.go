package constants

import "strings"

// On-disk layout of drafts and records.
const (
	RecordFile   = "record.json"
	MetadataFile = "metadata.json"
	DocumentsDir = "documents"

	DraftFile = "draft.json"
	DraftPDF  = "source.pdf"
)

// AllowedExtensions holds the file extensions accepted for quote/booking uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedUpload reports whether filename carries an accepted extension.
func IsAllowedUpload(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	_, ok := AllowedExtensions[NormalizeExt(filename[i:])]
	return ok
}
