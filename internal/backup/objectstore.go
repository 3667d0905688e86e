package backup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sethvargo/go-retry"

	apperrors "trialguard/internal/errors"
	"trialguard/internal/infrastructure"
)

const snapshotContentType = "application/vnd.sqlite3"

// ObjectStoreOptions configures an S3-compatible upload target.
type ObjectStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	ObjectKey string
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64
	Logger     *slog.Logger
}

// ObjectStoreUploader uploads snapshots to a single object in an
// S3-compatible bucket, overwriting the previous backup.
type ObjectStoreUploader struct {
	client     *minio.Client
	bucket     string
	key        string
	maxRetries uint64
	baseDelay  time.Duration
	logger     *slog.Logger
}

var _ Uploader = (*ObjectStoreUploader)(nil)

// NewObjectStoreUploader builds a MinIO client for opts. No request is made.
func NewObjectStoreUploader(opts ObjectStoreOptions) (*ObjectStoreUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create object storage client", err)
	}
	return NewObjectStoreUploaderWithClient(client, opts), nil
}

// NewObjectStoreUploaderWithClient wraps an existing MinIO client.
func NewObjectStoreUploaderWithClient(client *minio.Client, opts ObjectStoreOptions) *ObjectStoreUploader {
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ObjectStoreUploader{
		client:     client,
		bucket:     opts.Bucket,
		key:        opts.ObjectKey,
		maxRetries: opts.MaxRetries,
		baseDelay:  200 * time.Millisecond,
		logger: infrastructure.WithComponent(logger, "backup_uploader").With(
			slog.String("bucket", opts.Bucket),
			slog.String("object", opts.ObjectKey)),
	}
}

// Upload puts the file at path, retrying transient failures with
// exponential backoff.
func (u *ObjectStoreUploader) Upload(ctx context.Context, path string) error {
	b := retry.NewExponential(u.baseDelay)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(u.maxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		info, err := u.client.FPutObject(ctx, u.bucket, u.key, path, minio.PutObjectOptions{
			ContentType: snapshotContentType,
		})
		if err != nil {
			u.logger.WarnContext(ctx, "Snapshot upload attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}

		u.logger.DebugContext(ctx, "Snapshot uploaded",
			slog.Int("attempt", attempt),
			slog.Int64("size", info.Size),
			slog.String("etag", info.ETag))
		return nil
	})
}

// isRetryable reports whether err is worth another attempt: transport
// failures and server-side errors are, client errors are not.
func isRetryable(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, context.Canceled) {
		return false
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == 0:
		return true
	case resp.StatusCode >= 500:
		return true
	case resp.Code == "SlowDown", resp.Code == "RequestTimeout":
		return true
	default:
		return false
	}
}
