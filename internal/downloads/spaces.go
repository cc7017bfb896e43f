package downloads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"tailor-form/internal/config"
	"tailor-form/internal/logging"
)

const (
	metaFilename  = "Filename"
	metaExpiresAt = "Expires-At"
)

// SpacesStore keeps downloads in a DigitalOcean Spaces (or other
// S3-compatible) bucket. Objects carry their expiry in metadata and are
// treated as missing once it passes; a bucket lifecycle rule should remove
// them for good.
type SpacesStore struct {
	client     *s3.S3
	bucketName string
	prefix     string
	ttl        time.Duration
	now        func() time.Time
	logger     logging.Logger
}

// NewSpacesStore creates a store from the spaces section of the configuration
func NewSpacesStore(cfg *config.Config, logger logging.Logger) (*SpacesStore, error) {
	sp := cfg.Spaces
	if sp.AccessKeyID == "" || sp.AccessKeySecret == "" {
		return nil, fmt.Errorf("spaces credentials are required")
	}
	if sp.BucketName == "" {
		return nil, fmt.Errorf("spaces bucket name is required")
	}

	endpoint := sp.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", sp.Region)
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(sp.AccessKeyID, sp.AccessKeySecret, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(sp.Region),
		S3ForcePathStyle: aws.Bool(sp.PathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spaces session: %w", err)
	}

	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithField("component", "download_store")

	logger.Info("Spaces download store configured", map[string]interface{}{
		"endpoint":    endpoint,
		"bucket_name": sp.BucketName,
		"region":      sp.Region,
	})

	return &SpacesStore{
		client:     s3.New(sess),
		bucketName: sp.BucketName,
		prefix:     sp.Prefix,
		ttl:        cfg.Downloads.TTL,
		now:        time.Now,
		logger:     logger,
	}, nil
}

func (s *SpacesStore) Put(ctx context.Context, id string, blob *Blob) error {
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = s.now()
	}
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.objectKey(id)),
		Body:        bytes.NewReader(blob.Data),
		ContentType: aws.String(contentType),
		Metadata: map[string]*string{
			metaFilename:  aws.String(url.PathEscape(blob.Name)),
			metaExpiresAt: aws.String(blob.CreatedAt.Add(s.ttl).UTC().Format(time.RFC3339)),
		},
	})
	if err != nil {
		s.logger.Error("Failed to upload download", map[string]interface{}{
			"object_key": s.objectKey(id),
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to store download: %w", err)
	}
	return nil
}

func (s *SpacesStore) Get(ctx context.Context, id string) (*Blob, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load download: %w", err)
	}
	defer out.Body.Close()

	expiresAt, err := time.Parse(time.RFC3339, metadata(out.Metadata, metaExpiresAt))
	if err != nil || !s.now().Before(expiresAt) {
		if delErr := s.Delete(ctx, id); delErr != nil {
			s.logger.Warn("Failed to remove expired download", map[string]interface{}{
				"object_key": s.objectKey(id),
				"error":      delErr.Error(),
			})
		}
		return nil, ErrNotFound
	}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download: %w", err)
	}

	name, err := url.PathUnescape(metadata(out.Metadata, metaFilename))
	if err != nil {
		name = metadata(out.Metadata, metaFilename)
	}

	blob := &Blob{
		Name:        name,
		ContentType: aws.StringValue(out.ContentType),
		Data:        data,
		CreatedAt:   expiresAt.Add(-s.ttl),
	}
	return blob, nil
}

func (s *SpacesStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(id)),
	})
	return err
}

// Ping checks the bucket is reachable with the configured credentials
func (s *SpacesStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	return err
}

func (s *SpacesStore) Close() error {
	return nil
}

func (s *SpacesStore) objectKey(id string) string {
	return s.prefix + id
}

// metadata looks a key up regardless of how the service cased it
func metadata(md map[string]*string, key string) string {
	for k, v := range md {
		if strings.EqualFold(k, key) {
			return aws.StringValue(v)
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode() == http.StatusNotFound
	}
	return false
}
