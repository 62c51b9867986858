// Package attachment stores task attachments: binary records keyed by id,
// indexed by owning task and expiry, with validation, duplication and a
// periodic sweep that drops expired records and the references to them.
package attachment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MaxPerTask = 5
	MaxSize    = 1024 * 1024
	TTL        = 20 * 24 * time.Hour
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

var allowedExts = []string{".jpg", ".jpeg", ".png", ".svg", ".pdf"}

var (
	ErrUnavailable = errors.New("attachment store unavailable")
	ErrNotFound    = errors.New("attachment not found")
	ErrCorrupt     = errors.New("attachment content does not match its digest")
)

// Reason classifies a rejected upload
type Reason string

const (
	ReasonTooMany Reason = "too_many"
	ReasonType    Reason = "type"
	ReasonSize    Reason = "size"
)

// ValidationError reports the first constraint an upload batch violates
type ValidationError struct {
	Reason Reason
	File   string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonTooMany:
		return fmt.Sprintf("添付は最大%d件までです。", MaxPerTask)
	case ReasonType:
		return "添付できるのは jpeg/jpg, png, svg, pdf のみです。"
	case ReasonSize:
		return "1ファイルの上限は1MBです。"
	}
	return "invalid attachment"
}

// Upload is a file offered for attachment
type Upload struct {
	Name string
	Type string // declared MIME type, may be empty
	Size int64
	Data []byte
}

// NewUpload builds an Upload whose size is the length of data
func NewUpload(name, mimeType string, data []byte) Upload {
	return Upload{Name: name, Type: mimeType, Size: int64(len(data)), Data: data}
}

// Allowed reports whether the declared type or, failing that, the file
// extension is on the allow-list.
func Allowed(u Upload) bool {
	if allowedTypes[u.Type] {
		return true
	}
	name := strings.ToLower(u.Name)
	for _, ext := range allowedExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Validate checks a batch against the per-task count, then each file's type
// and size. The first violation wins.
func Validate(files []Upload, existing int) error {
	if existing+len(files) > MaxPerTask {
		return &ValidationError{Reason: ReasonTooMany}
	}
	for _, f := range files {
		if !Allowed(f) {
			return &ValidationError{Reason: ReasonType, File: f.Name}
		}
		if f.Size > MaxSize {
			return &ValidationError{Reason: ReasonSize, File: f.Name}
		}
	}
	return nil
}
