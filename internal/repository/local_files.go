package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
)

// LocalFileRepository implements domain.FileRepository on the local
// filesystem. Files land under
// {root}/exams/{examId}/questions/{questionId|temp}/image-{unixMillis}{ext}
// and are served back under the /uploads URL prefix.
//
// Filenames are unique only to millisecond granularity; two saves for the
// same question within the same millisecond collide. Accepted gap.
type LocalFileRepository struct {
	root string
}

// NewLocalFileRepository creates a local file repository rooted at the
// configured upload path.
func NewLocalFileRepository(root string) *LocalFileRepository {
	return &LocalFileRepository{root: root}
}

func (r *LocalFileRepository) Save(ctx context.Context, file []byte, mimeType string, opts domain.SaveFileOptions) (*domain.StoredFile, error) {
	ext, ok := domain.ExtensionForMIME(mimeType)
	if !ok {
		return nil, domain.Invalid("unsupported image type %q", mimeType)
	}

	questionSegment := opts.QuestionID
	if questionSegment == "" {
		questionSegment = "temp"
	}

	dir := filepath.Join(r.root, "exams", opts.ExamID, "questions", questionSegment)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Invalid("Failed to save file: %v", err)
	}

	fileName := fmt.Sprintf("image-%d%s", time.Now().UnixMilli(), ext)
	fullPath := filepath.Join(dir, fileName)
	if err := os.WriteFile(fullPath, file, 0o644); err != nil {
		return nil, domain.Invalid("Failed to save file: %v", err)
	}

	savedPath, err := filepath.Abs(fullPath)
	if err != nil {
		savedPath = fullPath
	}

	imageURL := fmt.Sprintf("/uploads/exams/%s/questions/%s/%s", opts.ExamID, questionSegment, fileName)
	log.Printf("File saved locally: %s (%s)", imageURL, domain.FormatSize(int64(len(file))))

	return &domain.StoredFile{
		ImageURL:  imageURL,
		FileName:  fileName,
		SavedPath: savedPath,
	}, nil
}

// Delete removes a file by the public URL returned from Save. The error is
// returned so the caller decides whether it matters.
func (r *LocalFileRepository) Delete(ctx context.Context, imageURL string) error {
	relative := strings.TrimPrefix(imageURL, "/uploads/")
	filePath := filepath.Join(r.root, filepath.FromSlash(relative))
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", imageURL, err)
	}
	log.Printf("File deleted: %s", imageURL)
	return nil
}
