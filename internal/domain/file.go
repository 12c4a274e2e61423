package domain

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// AllowedImageMIMETypes is the fixed allow-list gating question-image
// uploads. The transport layer and the storage service both validate
// against this same list.
var AllowedImageMIMETypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
}

// AllowedImageExtensions is used in user-facing rejection messages.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// imageExtensions is exhaustive over AllowedImageMIMETypes. A type outside
// the table is an error, never a silent fallback extension.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionForMIME returns the stored extension for an allowed image MIME
// type.
func ExtensionForMIME(mimeType string) (string, bool) {
	ext, ok := imageExtensions[mimeType]
	return ext, ok
}

// UploadPolicy is the immutable upload policy: resolved once at process
// start and shared by the HTTP layer and the upload service, so the two
// validation passes cannot disagree.
type UploadPolicy struct {
	// MaxBytes is the resolved byte limit (see config.ResolveMaxFileSize).
	MaxBytes  int64
	MIMETypes []string
}

// AllowsMIME reports whether the content type is on the allow-list.
func (p UploadPolicy) AllowsMIME(mimeType string) bool {
	for _, mt := range p.MIMETypes {
		if mt == mimeType {
			return true
		}
	}
	return false
}

// SaveFileOptions addresses the destination of a stored file. An empty
// QuestionID stores the file under the literal "temp" segment.
type SaveFileOptions struct {
	ExamID     string
	QuestionID string
}

// StoredFile describes one successfully persisted upload. Immutable;
// returned verbatim to the client.
type StoredFile struct {
	ImageURL  string `json:"imageUrl"`
	FileName  string `json:"fileName"`
	SavedPath string `json:"savedPath"`
}

// FileRepository is a storage backend for uploaded images. Implementations
// persist an already-validated buffer; policy validation lives in the
// upload service.
type FileRepository interface {
	Save(ctx context.Context, file []byte, mimeType string, opts SaveFileOptions) (*StoredFile, error)
	// Delete removes a previously stored file by its public URL. Callers
	// decide whether a failure matters; in-repo callers treat it as
	// best-effort and only log.
	Delete(ctx context.Context, imageURL string) error
}

// Storage backend selectors (STORAGE_TYPE).
const (
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"
)

// FormatSize renders a byte count for user-facing limit messages,
// e.g. 10485760 -> "10 MB".
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(v, 'f', -1, 64), sizes[i])
}
