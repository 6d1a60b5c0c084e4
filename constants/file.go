package constants

import "strings"

// PDFExtension is the only upload extension accepted for intake.
const PDFExtension = "pdf"

// PDFMagic is the required leading byte signature of an uploaded file.
const PDFMagic = "%PDF-"

// AllowedContentTypes holds the declared content types accepted for uploads.
// An empty declared type is allowed; some clients omit it.
var AllowedContentTypes = map[string]struct{}{
	"application/pdf":   {},
	"application/x-pdf": {},
}

// PageImageFormats are the rasterization formats pdftoppm supports here.
var PageImageFormats = map[string]struct{}{
	"jpeg": {},
	"jpg":  {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ContentTypeAllowed reports whether a declared upload content type is in
// the allow-list. Parameters such as "; charset=" are ignored.
func ContentTypeAllowed(ct string) bool {
	if ct == "" {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	_, ok := AllowedContentTypes[ct]
	return ok
}
