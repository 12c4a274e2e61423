package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoExamRepository implements domain.ExamRepository
type MongoExamRepository struct {
	collection *mongo.Collection
}

func NewMongoExamRepository(db *mongo.Database) *MongoExamRepository {
	coll := db.Collection("exams")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mod := mongo.IndexModel{
		Keys: bson.M{"created_by_id": 1},
	}
	coll.Indexes().CreateOne(ctx, mod)

	return &MongoExamRepository{
		collection: coll,
	}
}

func (r *MongoExamRepository) Create(ctx context.Context, exam *domain.Exam) error {
	exam.CreatedAt = time.Now()
	exam.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, exam); err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (r *MongoExamRepository) GetByID(ctx context.Context, id string) (*domain.Exam, error) {
	var exam domain.Exam
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exam)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

func (r *MongoExamRepository) Update(ctx context.Context, exam *domain.Exam) error {
	exam.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"title":         exam.Title,
			"subject":       exam.Subject,
			"total_marks":   exam.TotalMarks,
			"passing_marks": exam.PassingMarks,
			"status":        exam.Status,
			"updated_at":    exam.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exam.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrExamNotFound
	}
	return nil
}

func (r *MongoExamRepository) ListByCreator(ctx context.Context, createdByID string) ([]*domain.Exam, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"created_by_id": createdByID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exams []*domain.Exam
	if err := cursor.All(ctx, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}
