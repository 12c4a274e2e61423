package service

import (
	"context"
	"crypto/rand"
	"log"
	"strings"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// ExamService owns exam and question lifecycle, including the image-URL
// record update that follows an upload.
type ExamService struct {
	examRepo     domain.ExamRepository
	questionRepo domain.QuestionRepository
	fileRepo     domain.FileRepository
	cache        domain.CacheRepository
}

// NewExamService creates a new exam service
func NewExamService(
	examRepo domain.ExamRepository,
	questionRepo domain.QuestionRepository,
	fileRepo domain.FileRepository,
	cache domain.CacheRepository,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		fileRepo:     fileRepo,
		cache:        cache,
	}
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// CreateExam validates and persists a new exam owned by the actor.
func (s *ExamService) CreateExam(ctx context.Context, actor domain.Actor, exam *domain.Exam) error {
	if strings.TrimSpace(exam.Title) == "" {
		return domain.Invalid("title is required")
	}
	if exam.TotalMarks <= 0 {
		return domain.Invalid("total_marks must be positive")
	}
	if exam.PassingMarks < 0 || exam.PassingMarks > exam.TotalMarks {
		return domain.Invalid("passing_marks cannot exceed total_marks")
	}

	exam.ID = newULID()
	exam.CreatedByID = actor.UserID
	if exam.Status == "" {
		exam.Status = domain.ExamStatusDraft
	}

	return s.examRepo.Create(ctx, exam)
}

// UpdateExam applies the ownership rule, persists the change and drops the
// cached copy.
func (s *ExamService) UpdateExam(ctx context.Context, actor domain.Actor, exam *domain.Exam) error {
	existing, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return err
	}
	if !existing.CanManage(actor.UserID, actor.Role) {
		return domain.ErrForbidden
	}
	if exam.TotalMarks <= 0 {
		return domain.Invalid("total_marks must be positive")
	}
	if exam.PassingMarks < 0 || exam.PassingMarks > exam.TotalMarks {
		return domain.Invalid("passing_marks cannot exceed total_marks")
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateExam(ctx, exam.ID); err != nil {
			log.Printf("Warning: failed to invalidate cached exam %s: %v", exam.ID, err)
		}
	}
	return nil
}

// GetExamWithQuestions fetches the exam and its questions concurrently.
func (s *ExamService) GetExamWithQuestions(ctx context.Context, id string) (*domain.Exam, []*domain.Question, error) {
	var (
		exam      *domain.Exam
		questions []*domain.Question
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exam, err = s.examRepo.GetByID(gCtx, id)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.questionRepo.ListByExam(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return exam, questions, nil
}

// ListMyExams returns the exams created by the actor.
func (s *ExamService) ListMyExams(ctx context.Context, actor domain.Actor) ([]*domain.Exam, error) {
	return s.examRepo.ListByCreator(ctx, actor.UserID)
}

// AddQuestion appends a question to an exam the actor may manage.
func (s *ExamService) AddQuestion(ctx context.Context, examID string, actor domain.Actor, q *domain.Question) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if !exam.CanManage(actor.UserID, actor.Role) {
		return domain.ErrForbidden
	}

	if strings.TrimSpace(q.Text) == "" {
		return domain.Invalid("question text is required")
	}
	if q.Marks <= 0 {
		return domain.Invalid("marks must be positive")
	}
	if q.Type == "" {
		q.Type = domain.QuestionTypeShortAnswer
	}

	q.ID = newULID()
	q.ExamID = examID

	return s.questionRepo.Create(ctx, q)
}

// SetQuestionImage persists an uploaded image URL onto a question. The URL
// must be a served path, never an inline data: payload; clients upload
// first and attach the returned URL here. A replaced image is deleted
// best-effort.
func (s *ExamService) SetQuestionImage(ctx context.Context, questionID string, actor domain.Actor, imageURL string) (*domain.Question, error) {
	if imageURL == "" {
		return nil, domain.Invalid("imageUrl is required")
	}
	if strings.HasPrefix(imageURL, "data:") {
		return nil, domain.Invalid("Base64 encoded images are not allowed. Use the image upload endpoint first.")
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	exam, err := s.examRepo.GetByID(ctx, question.ExamID)
	if err != nil {
		return nil, err
	}
	if !exam.CanManage(actor.UserID, actor.Role) {
		return nil, domain.ErrForbidden
	}

	updated, err := s.questionRepo.SetImageURL(ctx, questionID, imageURL)
	if err != nil {
		return nil, err
	}

	if question.ImageURL != "" && question.ImageURL != imageURL && s.fileRepo != nil {
		if err := s.fileRepo.Delete(ctx, question.ImageURL); err != nil {
			log.Printf("Warning: failed to delete replaced image %s: %v", question.ImageURL, err)
		}
	}

	return updated, nil
}
