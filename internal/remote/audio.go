package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"spellsync/internal/config"
	"spellsync/internal/services"
)

// AudioUploader stores recorded pronunciation clips in an S3-compatible
// bucket. Object keys follow {childId}/{listId}/{wordId}_{unixMillis}, so an
// upload retried after a partial failure simply overwrites the same object.
type AudioUploader struct {
	client *minio.Client
	bucket string
}

// NewAudioUploader builds an uploader from the storage config section.
func NewAudioUploader(cfg config.Storage) (*AudioUploader, error) {
	if cfg.Endpoint == "" {
		return nil, services.Wrap(services.ErrValidation, "audio upload", "init", "storage endpoint not configured", nil)
	}
	if cfg.Bucket == "" {
		return nil, services.Wrap(services.ErrValidation, "audio upload", "init", "storage bucket not configured", nil)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "audio upload", "init", "create client", err)
	}
	return &AudioUploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes the clip payload to the bucket and returns the stable remote
// path recorded against dependent attempts.
func (u *AudioUploader) Upload(ctx context.Context, destPath string, payload []byte, contentType string) (string, error) {
	if destPath == "" {
		return "", services.Wrap(services.ErrValidation, "audio upload", "put object", "empty destination path", nil)
	}
	_, err := u.client.PutObject(ctx, u.bucket, destPath, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", classifyUpload(err)
	}
	return fmt.Sprintf("%s/%s", u.bucket, destPath), nil
}

func classifyUpload(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode > 0 {
		return classifyStatus("put object", resp.StatusCode, resp.Message)
	}
	return services.Wrap(services.ErrUnavailable, "audio upload", "put object", "request failed", err)
}
