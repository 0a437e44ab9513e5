package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/dafibh/teri/teri-backend/internal/config"
	"github.com/dafibh/teri/teri-backend/internal/domain"
)

// S3TranscriptRepository implements domain.ChatTranscriptRepository using AWS S3.
// Each workspace has one JSON object holding its ordered transcript.
type S3TranscriptRepository struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3TranscriptRepository creates a new S3 transcript repository
func NewS3TranscriptRepository(ctx context.Context, s3cfg cfg.S3Config) (*S3TranscriptRepository, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // MinIO / LocalStack
		}
	})

	repo := &S3TranscriptRepository{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
	}

	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// TranscriptKey returns the object key of a workspace transcript
func TranscriptKey(workspaceID int32) string {
	return fmt.Sprintf("chats/%d.json", workspaceID)
}

// ensureBucket creates the bucket if it doesn't exist. The bucket stays private.
func (r *S3TranscriptRepository) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
	}

	if _, err := r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Load returns the transcript of a workspace; a missing object is an empty transcript
func (r *S3TranscriptRepository) Load(ctx context.Context, workspaceID int32) ([]domain.ChatMessage, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(TranscriptKey(workspaceID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return []domain.ChatMessage{}, nil
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return DecodeTranscript(data)
}

// Save replaces the stored transcript of a workspace
func (r *S3TranscriptRepository) Save(ctx context.Context, workspaceID int32, messages []domain.ChatMessage) error {
	data, err := EncodeTranscript(messages)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(TranscriptKey(workspaceID)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload transcript: %w", err)
	}
	return nil
}

// Clear removes the stored transcript of a workspace
func (r *S3TranscriptRepository) Clear(ctx context.Context, workspaceID int32) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(TranscriptKey(workspaceID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// ExportURL generates a presigned GET URL for downloading a workspace transcript
func (r *S3TranscriptRepository) ExportURL(ctx context.Context, workspaceID int32, expiry time.Duration) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(TranscriptKey(workspaceID)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}

// EncodeTranscript serializes messages as an ordered JSON array
func EncodeTranscript(messages []domain.ChatMessage) ([]byte, error) {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	return data, nil
}

// DecodeTranscript parses a stored transcript; an empty blob is an empty transcript
func DecodeTranscript(data []byte) ([]domain.ChatMessage, error) {
	messages := []domain.ChatMessage{}
	if len(bytes.TrimSpace(data)) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return messages, nil
}
