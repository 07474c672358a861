package storage

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
	"github.com/google/uuid"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ResumeArchive keeps a copy of every uploaded resume in an R2 bucket.
type ResumeArchive struct {
	client ObjectPutter
	bucket string
}

func NewResumeArchive(client ObjectPutter, bucket string) *ResumeArchive {
	return &ResumeArchive{client: client, bucket: bucket}
}

func NewR2Client(ctx context.Context, cfg R2Config) (*s3.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	}), nil
}

// Put uploads data and returns the object key, which is dated and unique.
func (a *ResumeArchive) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(time.Now().UTC(), uuid.NewString(), filename)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return key, nil
}

func ObjectKey(now time.Time, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("resumes/%s/%s%s", now.Format("2006/01/02"), id, ext)
}
