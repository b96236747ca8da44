package attachment

import (
	"fmt"
	"time"
)

// MaxCount is the most attachments a single incident may carry.
const MaxCount = 5

// MaxSizeBytes is the per-file size ceiling.
const MaxSizeBytes = 10 << 20

// Descriptor describes a picked file before upload. It never holds the
// file's bytes, only metadata.
type Descriptor struct {
	Path string `json:"path"`
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// Stored describes an attachment persisted by the server.
type Stored struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	Name       string    `json:"name"`
	MIME       string    `json:"mime"`
	Size       int64     `json:"size"`
	Hash       string    `json:"hash"`
	UploadedAt time.Time `json:"uploaded_at"`
}

var allowedMIME = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"application/pdf": true,
}

// Validate checks a descriptor against the upload policy. The returned
// error message is shown to the user verbatim.
func Validate(d Descriptor) error {
	if !allowedMIME[d.MIME] {
		return fmt.Errorf("file type %q is not allowed; use images, video, or PDF", d.MIME)
	}
	if d.Size > MaxSizeBytes {
		return fmt.Errorf("file is too large (%d bytes, limit %d)", d.Size, MaxSizeBytes)
	}
	return nil
}

// CheckCap rejects adding another attachment when the cap is already
// reached. Called before any state mutation.
func CheckCap(current int) error {
	if current >= MaxCount {
		return fmt.Errorf("at most %d attachments per incident", MaxCount)
	}
	return nil
}
