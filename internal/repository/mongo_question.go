package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoQuestionRepository implements domain.QuestionRepository
type MongoQuestionRepository struct {
	collection *mongo.Collection
}

func NewMongoQuestionRepository(db *mongo.Database) *MongoQuestionRepository {
	coll := db.Collection("exam_questions")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mod := mongo.IndexModel{
		Keys: bson.D{{Key: "exam_id", Value: 1}, {Key: "order", Value: 1}},
	}
	coll.Indexes().CreateOne(ctx, mod)

	return &MongoQuestionRepository{
		collection: coll,
	}
}

func (r *MongoQuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	q.CreatedAt = time.Now()
	q.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *MongoQuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	var q domain.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *MongoQuestionRepository) ListByExam(ctx context.Context, examID string) ([]*domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"exam_id": examID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*domain.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *MongoQuestionRepository) SetImageURL(ctx context.Context, id string, imageURL string) (*domain.Question, error) {
	update := bson.M{
		"$set": bson.M{
			"image_url":  imageURL,
			"updated_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Question
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to update question image: %w", err)
	}
	return &updated, nil
}
