package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
)

const examCacheTTL = 5 * time.Minute

// UploadedFile carries one fully-buffered upload through validation and
// storage. Created per request, never persisted.
type UploadedFile struct {
	Data         []byte
	OriginalName string
	MIMEType     string
}

// UploadService owns the question-image pipeline: it authorizes the caller
// against the owning exam, checks the question/exam relationship, validates
// the buffer against the upload policy and hands it to the configured
// storage backend.
type UploadService struct {
	examRepo     domain.ExamRepository
	questionRepo domain.QuestionRepository
	fileRepo     domain.FileRepository
	cache        domain.CacheRepository
	policy       domain.UploadPolicy
}

// NewUploadService creates a new upload service
func NewUploadService(
	examRepo domain.ExamRepository,
	questionRepo domain.QuestionRepository,
	fileRepo domain.FileRepository,
	cache domain.CacheRepository,
	policy domain.UploadPolicy,
) *UploadService {
	return &UploadService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		fileRepo:     fileRepo,
		cache:        cache,
		policy:       policy,
	}
}

// UploadExamQuestionImage saves an image for a question addressed by both
// exam id and question id. The question must belong to the exam named in
// the path; a question from another exam is treated as not found.
func (s *UploadService) UploadExamQuestionImage(ctx context.Context, examID, questionID string, actor domain.Actor, file *UploadedFile) (*domain.StoredFile, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, domain.Invalid("No file provided. Please upload an image with field name 'image'.")
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.CanManage(actor.UserID, actor.Role) {
		return nil, domain.ErrForbidden
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.ExamID != examID {
		return nil, fmt.Errorf("%w in this exam", domain.ErrQuestionNotFound)
	}

	return s.SaveFile(ctx, file.Data, file.OriginalName, file.MIMEType, domain.SaveFileOptions{
		ExamID:     examID,
		QuestionID: questionID,
	})
}

// UploadQuestionImage saves an image for a question addressed by question
// id alone; the exam is derived from the question record.
func (s *UploadService) UploadQuestionImage(ctx context.Context, questionID string, actor domain.Actor, file *UploadedFile) (*domain.StoredFile, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, domain.Invalid("No file provided")
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, question.ExamID)
	if err != nil {
		return nil, err
	}
	if !exam.CanManage(actor.UserID, actor.Role) {
		return nil, domain.ErrForbidden
	}

	return s.SaveFile(ctx, file.Data, file.OriginalName, file.MIMEType, domain.SaveFileOptions{
		ExamID:     question.ExamID,
		QuestionID: questionID,
	})
}

// SaveFile re-validates the buffer against the upload policy and delegates
// to the storage backend. This check is deliberately in addition to the
// transport-layer check; both must hold for a file to be persisted.
func (s *UploadService) SaveFile(ctx context.Context, file []byte, originalFileName, mimeType string, opts domain.SaveFileOptions) (*domain.StoredFile, error) {
	if !s.policy.AllowsMIME(mimeType) {
		return nil, domain.Invalid("Invalid file type. Allowed types: %s", strings.Join(domain.AllowedImageExtensions, ", "))
	}
	if int64(len(file)) > s.policy.MaxBytes {
		return nil, domain.Invalid("File size exceeds maximum allowed size of %s", domain.FormatSize(s.policy.MaxBytes))
	}

	return s.fileRepo.Save(ctx, file, mimeType, opts)
}

// DeleteFile removes a previously stored file. Deletion is best-effort at
// every call site in this repo: the error is returned so callers can see
// it, and they log instead of failing the request.
func (s *UploadService) DeleteFile(ctx context.Context, imageURL string) error {
	return s.fileRepo.Delete(ctx, imageURL)
}

// getExam loads an exam through the cache. Cache failures fall through to
// Mongo; a miss populates the cache with a short TTL.
func (s *UploadService) getExam(ctx context.Context, id string) (*domain.Exam, error) {
	if s.cache != nil {
		if exam, err := s.cache.GetExam(ctx, id); err == nil && exam != nil {
			return exam, nil
		}
	}

	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetExam(ctx, exam, examCacheTTL); err != nil {
			log.Printf("Warning: failed to cache exam %s: %v", id, err)
		}
	}
	return exam, nil
}
