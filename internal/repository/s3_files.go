package repository

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/mansoorceksport/examcore/internal/config"
	"github.com/mansoorceksport/examcore/internal/domain"
)

// S3FileRepository implements domain.FileRepository against an
// S3-compatible object store (SeaweedFS, MinIO, AWS). Keys mirror the
// local layout: exams/{examId}/questions/{questionId|temp}/image-....
type S3FileRepository struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3FileRepository creates the S3 backend and ensures the bucket exists.
func NewS3FileRepository(ctx context.Context, cfg appConfig.S3Config) (*S3FileRepository, error) {
	// Static "any" credentials: SeaweedFS/MinIO require signed requests
	// but do not check the identity by default.
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("any", "any", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required for most S3-compatible stores
	})

	repo := &S3FileRepository{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.Endpoint,
	}

	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *S3FileRepository) Save(ctx context.Context, file []byte, mimeType string, opts domain.SaveFileOptions) (*domain.StoredFile, error) {
	ext, ok := domain.ExtensionForMIME(mimeType)
	if !ok {
		return nil, domain.Invalid("unsupported image type %q", mimeType)
	}

	questionSegment := opts.QuestionID
	if questionSegment == "" {
		questionSegment = "temp"
	}

	fileName := fmt.Sprintf("image-%d%s", time.Now().UnixMilli(), ext)
	key := path.Join("exams", opts.ExamID, "questions", questionSegment, fileName)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return &domain.StoredFile{
		ImageURL:  fmt.Sprintf("%s/%s/%s", r.publicURL, r.bucket, key),
		FileName:  fileName,
		SavedPath: key,
	}, nil
}

// Delete removes an object by the public URL returned from Save.
func (r *S3FileRepository) Delete(ctx context.Context, imageURL string) error {
	prefix := fmt.Sprintf("%s/%s/", r.publicURL, r.bucket)
	key := strings.TrimPrefix(imageURL, prefix)
	if key == imageURL {
		return fmt.Errorf("image url %s does not belong to bucket %s", imageURL, r.bucket)
	}

	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", imageURL, err)
	}
	return nil
}

// ensureBucket checks if the bucket exists, creating it if necessary
func (r *S3FileRepository) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(r.bucket),
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
		}
	}
	return nil
}
