package domain

import (
	"context"
	"time"
)

// Exam is the owning aggregate for questions. CreatedByID is the authority
// for the ownership rule on every question mutation.
type Exam struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Subject      string    `bson:"subject" json:"subject"`
	TotalMarks   int       `bson:"total_marks" json:"total_marks"`
	PassingMarks int       `bson:"passing_marks" json:"passing_marks"`
	Status       string    `bson:"status" json:"status"`
	CreatedByID  string    `bson:"created_by_id" json:"created_by_id"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// CanManage applies the ownership rule: the exam creator, or an admin, may
// mutate the exam and its questions.
func (e *Exam) CanManage(userID, role string) bool {
	if e.CreatedByID == userID {
		return true
	}
	return role == RoleAdmin || role == RoleSuperAdmin
}

// Exam status values
const (
	ExamStatusDraft     = "DRAFT"
	ExamStatusPublished = "PUBLISHED"
)

// Question belongs to an exam. ImageURL is always a served path under
// /uploads (or an object-store URL), never an inline data: payload.
type Question struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ExamID    string    `bson:"exam_id" json:"exam_id"`
	Text      string    `bson:"text" json:"text"`
	Type      string    `bson:"type" json:"type"`
	Marks     int       `bson:"marks" json:"marks"`
	Order     int       `bson:"order" json:"order"`
	ImageURL  string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Question type values
const (
	QuestionTypeMultipleChoice = "MULTIPLE_CHOICE"
	QuestionTypeShortAnswer    = "SHORT_ANSWER"
	QuestionTypeEssay          = "ESSAY"
)

// ExamRepository defines operations for managing exams
type ExamRepository interface {
	Create(ctx context.Context, exam *Exam) error
	GetByID(ctx context.Context, id string) (*Exam, error)
	Update(ctx context.Context, exam *Exam) error
	ListByCreator(ctx context.Context, createdByID string) ([]*Exam, error)
}

// QuestionRepository defines operations for managing exam questions
type QuestionRepository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id string) (*Question, error)
	ListByExam(ctx context.Context, examID string) ([]*Question, error)
	// SetImageURL persists the image URL and returns the updated question.
	SetImageURL(ctx context.Context, id string, imageURL string) (*Question, error)
}

// CacheRepository caches hot exam lookups. Exam-by-id is read on every
// upload authorization, so it gets a short TTL cache in front of Mongo.
type CacheRepository interface {
	SetExam(ctx context.Context, exam *Exam, ttl time.Duration) error
	// GetExam returns (nil, nil) on a cache miss.
	GetExam(ctx context.Context, id string) (*Exam, error)
	InvalidateExam(ctx context.Context, id string) error
}
