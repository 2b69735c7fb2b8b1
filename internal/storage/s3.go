package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nutrisnap/backend/config"
)

// S3 stores uploads in an S3 bucket with public read access, for deployments
// where the server itself is not externally reachable by the vision model.
type S3 struct {
	cfg *config.S3Config
}

func NewS3(cfg *config.S3Config) *S3 {
	return &S3{
		cfg: cfg,
	}
}

func (s *S3) Save(ctx context.Context, filename string, data []byte) (string, string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), SanitizeFilename(filename))
	key := fmt.Sprintf("food-photos/%s", name)

	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.BucketName, key)
	log.Printf("[S3Store] Uploaded photo to %s", url)
	return name, url, nil
}
