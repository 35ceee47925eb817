// Package format classifies source documents by file extension.
package format

import (
	"errors"
	"strings"
)

var ErrUnsupported = errors.New("unsupported file format")

// Kind is the document format category a print job routes on.
type Kind int

const (
	Unsupported Kind = iota
	PDF
	Image
	Office
)

func (k Kind) String() string {
	switch k {
	case PDF:
		return "pdf"
	case Image:
		return "image"
	case Office:
		return "office"
	default:
		return "unsupported"
	}
}

var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
}

var officeExtensions = map[string]bool{
	"doc":  true,
	"docx": true,
	"xls":  true,
	"xlsx": true,
	"ppt":  true,
	"pptx": true,
	"odt":  true,
	"ods":  true,
	"odp":  true,
}

// Detect classifies a source location by its extension, case-insensitively,
// ignoring any query string. Unknown or missing extensions are Unsupported.
func Detect(sourceURL string) Kind {
	switch ext := Extension(sourceURL); {
	case ext == "pdf":
		return PDF
	case imageExtensions[ext]:
		return Image
	case officeExtensions[ext]:
		return Office
	default:
		return Unsupported
	}
}

// Extension returns the lowercase extension of the URL path without the
// leading dot, or "" when there is none.
func Extension(sourceURL string) string {
	path := strings.ToLower(sourceURL)

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}

	dot := strings.LastIndexByte(path, '.')
	if dot <= 0 || dot == len(path)-1 {
		return ""
	}

	ext := path[dot+1:]
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
