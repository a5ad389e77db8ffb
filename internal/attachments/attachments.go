// Package attachments issues presigned URLs for E2EE attachment blobs.
// The server never touches plaintext or ciphertext bytes directly —
// clients upload/download straight to object storage using these URLs.
// Adapted from the teacher's minio-backed media upload flow, trimmed of
// its virus-scan/transcoding hooks (out of scope for this system).
package attachments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hakimino/vyry/internal/apperr"
)

const presignedURLTTL = 15 * time.Minute

// Service issues presigned PUT/GET URLs against a single bucket.
type Service struct {
	client *minio.Client
	bucket string
}

func NewService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "create minio client", err)
	}
	return &Service{client: client, bucket: bucket}, nil
}

// UploadURL returns a presigned PUT URL and the object key the caller
// should upload its ciphertext blob to.
func (s *Service) UploadURL(ctx context.Context, ownerID uuid.UUID) (url string, objectKey string, err error) {
	objectKey = fmt.Sprintf("%s/%s", ownerID, uuid.NewString())
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, presignedURLTTL)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "presign upload url", err)
	}
	return u.String(), objectKey, nil
}

// DownloadURL returns a presigned GET URL for an existing object key.
func (s *Service) DownloadURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignedURLTTL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "presign download url", err)
	}
	return u.String(), nil
}
