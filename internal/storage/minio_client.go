package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"archivePortal/internal/apperr"
	"archivePortal/internal/config"
	"archivePortal/internal/models"
)

// DefaultMaxUploadSize is the per-file limit for attachments and ID documents.
const DefaultMaxUploadSize int64 = 50 * 1024 * 1024

type Storage interface {
	UploadAttachment(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error)
	UploadDocument(ctx context.Context, userID, fileName string, file io.Reader, size int64) (string, error)
	StatAttachment(ctx context.Context, objectKey string) (*models.Attachment, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// objectStore is the subset of *minio.Client the storage layer calls.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinIOClient struct {
	client         objectStore
	bucket         string
	documentBucket string
	publicURL      string
	maxSize        int64
	now            func() time.Time
}

// NewMinIOClient connects to MinIO and makes sure both buckets exist.
func NewMinIOClient(ctx context.Context, cfg config.MinIO, maxSize int64) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating MinIO client: %w", err)
	}

	for _, bucket := range []string{cfg.BucketName, cfg.DocumentBucket} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("error checking bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", bucket, err)
		}
	}

	return newMinIOClient(client, cfg, maxSize), nil
}

func newMinIOClient(client objectStore, cfg config.MinIO, maxSize int64) *MinIOClient {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &MinIOClient{
		client:         client,
		bucket:         cfg.BucketName,
		documentBucket: cfg.DocumentBucket,
		publicURL:      strings.TrimSuffix(cfg.PublicURL, "/"),
		maxSize:        maxSize,
		now:            time.Now,
	}
}

func (m *MinIOClient) checkSize(size int64) error {
	if size > m.maxSize {
		return apperr.NewValidation("file",
			fmt.Sprintf("file is %s, the limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(uint64(m.maxSize))))
	}
	if size == 0 {
		return apperr.NewValidation("file", "file is empty")
	}
	return nil
}

// UploadAttachment stores an upload-wizard file and returns its descriptor.
// The descriptor is not yet bound to a submission.
func (m *MinIOClient) UploadAttachment(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	if err := m.checkSize(size); err != nil {
		return nil, err
	}

	sniffed, err := Sniff(file, fileName)
	if err != nil {
		return nil, err
	}

	now := m.now()
	objectName := fmt.Sprintf("submissions/%s/%d/%02d/%s%s",
		ownerID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		sniffed.Extension)

	_, err = m.client.PutObject(ctx, m.bucket, objectName, sniffed.Reader, size,
		minio.PutObjectOptions{
			ContentType: sniffed.MimeType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"owner-id":          ownerID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return nil, fmt.Errorf("error uploading to MinIO: %w", err)
	}

	return &models.Attachment{
		AttachmentID: uuid.New().String(),
		Name:         fileName,
		Kind:         models.KindFromMIME(sniffed.MimeType),
		MimeType:     sniffed.MimeType,
		Size:         size,
		ObjectKey:    objectName,
		URL:          fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName),
		CreatedAt:    now,
	}, nil
}

// UploadDocument stores an identity document in the private bucket and returns its key.
func (m *MinIOClient) UploadDocument(ctx context.Context, userID, fileName string, file io.Reader, size int64) (string, error) {
	if err := m.checkSize(size); err != nil {
		return "", err
	}

	sniffed, err := Sniff(file, fileName)
	if err != nil {
		return "", err
	}
	if !IsDocumentType(sniffed.MimeType) {
		return "", apperr.NewValidation("document", "must be an image or a PDF")
	}

	objectName := fmt.Sprintf("verification/%s/%s%s", userID, uuid.New().String(), sniffed.Extension)

	_, err = m.client.PutObject(ctx, m.documentBucket, objectName, sniffed.Reader, size,
		minio.PutObjectOptions{
			ContentType: sniffed.MimeType,
			UserMetadata: map[string]string{
				"user-id":     userID,
				"uploaded-at": m.now().Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", fmt.Errorf("error uploading document to MinIO: %w", err)
	}

	return objectName, nil
}

// StatAttachment rebuilds an attachment descriptor from what is actually stored
// under objectKey. A missing object is a NotFoundError.
func (m *MinIOClient) StatAttachment(ctx context.Context, objectKey string) (*models.Attachment, error) {
	info, err := m.client.StatObject(ctx, m.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperr.NotFound("file", objectKey)
		}
		return nil, fmt.Errorf("error reading object info from MinIO: %w", err)
	}

	mimeType, _, _ := strings.Cut(info.ContentType, ";")
	mimeType = strings.TrimSpace(mimeType)
	return &models.Attachment{
		Name:      userMetadata(info, "original-filename"),
		Kind:      models.KindFromMIME(mimeType),
		MimeType:  mimeType,
		Size:      info.Size,
		ObjectKey: objectKey,
		URL:       fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectKey),
		CreatedAt: info.LastModified,
	}, nil
}

// userMetadata looks up a metadata key regardless of the casing MinIO returns.
func userMetadata(info minio.ObjectInfo, key string) string {
	for k, v := range info.UserMetadata {
		if strings.EqualFold(k, key) || strings.EqualFold(k, "X-Amz-Meta-"+key) {
			return v
		}
	}
	return ""
}

func (m *MinIOClient) DeleteObject(ctx context.Context, objectKey string) error {
	bucket := m.bucket
	if strings.HasPrefix(objectKey, "verification/") {
		bucket = m.documentBucket
	}

	err := m.client.RemoveObject(ctx, bucket, objectKey,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("error deleting from MinIO: %w", err)
	}
	return nil
}
