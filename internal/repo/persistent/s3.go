package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vitrina-app/media-service/pkg/s3client"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

type BlobRepo struct {
	*s3client.S3Client
	bucket string
}

func NewBlobRepo(s3c *s3client.S3Client, bucket string) *BlobRepo {
	return &BlobRepo{s3c, bucket}
}

func (r *BlobRepo) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return &errs.TransientStorageError{Op: "upload", Key: key,
			Err: fmt.Errorf("BlobRepo - Upload - r.Client.PutObject: %w", err)}
	}

	return nil
}

func (r *BlobRepo) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("BlobRepo - Download: %w", errs.ErrUploadNotFound)
		}
		return nil, &errs.TransientStorageError{Op: "download", Key: key,
			Err: fmt.Errorf("BlobRepo - Download - r.Client.GetObject: %w", err)}
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &errs.TransientStorageError{Op: "download", Key: key,
			Err: fmt.Errorf("BlobRepo - Download - io.ReadAll: %w", err)}
	}

	return b, nil
}

func (r *BlobRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &errs.TransientStorageError{Op: "delete", Key: key,
			Err: fmt.Errorf("BlobRepo - Delete - r.Client.DeleteObject: %w", err)}
	}

	return nil
}

// PresignPut issues a write-only signed URL for a direct client
// upload. Nothing is stored server-side; the slot exists only as the
// signed URL itself.
func (r *BlobRepo) PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	req, err := r.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", &errs.TransientStorageError{Op: "presign", Key: key,
			Err: fmt.Errorf("BlobRepo - PresignPut - r.Presign.PresignPutObject: %w", err)}
	}

	return req.URL, nil
}
