package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/sahilchouksey/intern-track/services/upload"
)

// SpacesClient handles DigitalOcean Spaces operations
type SpacesClient struct {
	s3Client *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	endpoint string
	cdnURL   string
	pathURLs bool
}

// SpacesConfig holds configuration for Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
	// PathStyle addresses objects as endpoint/bucket/key, for local S3 fakes
	PathStyle bool
	// PartSize of multipart uploads; zero uses the s3manager minimum
	PartSize int64
}

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	if config.Bucket == "" || config.Region == "" {
		return nil, fmt.Errorf("DO_SPACES_BUCKET and DO_SPACES_REGION must be configured")
	}
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", config.Region)
	}

	endpoint := config.Endpoint
	awsCfg := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.PathStyle),
	}
	if strings.HasPrefix(endpoint, "http://") {
		awsCfg.DisableSSL = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	client := s3.New(sess)
	partSize := config.PartSize
	if partSize < s3manager.MinUploadPartSize {
		partSize = s3manager.MinUploadPartSize
	}

	return &SpacesClient{
		s3Client: client,
		uploader: s3manager.NewUploaderWithClient(client, func(u *s3manager.Uploader) {
			// One part in flight keeps the progress count in upload order
			u.Concurrency = 1
			u.PartSize = partSize
		}),
		bucket:   config.Bucket,
		endpoint: strings.TrimRight(endpoint, "/"),
		cdnURL:   strings.TrimRight(config.CDNURL, "/"),
		pathURLs: config.PathStyle,
	}, nil
}

// progressReader counts bytes as the uploader pulls them
type progressReader struct {
	r     io.Reader
	read  atomic.Int64
	onAdd func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onAdd != nil {
		p.onAdd(p.read.Add(int64(n)))
	}
	return n, err
}

// UploadResumable streams body to key as a multipart upload. Parts are sent
// one at a time and onProgress sees the cumulative bytes consumed.
func (s *SpacesClient) UploadResumable(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress func(int64)) (upload.ObjectRef, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        &progressReader{r: body, onAdd: onProgress},
		ACL:         aws.String("public-read"), // Make publicly accessible
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return upload.ObjectRef{}, fmt.Errorf("failed to upload file: %w", err)
	}
	return upload.ObjectRef{Key: key, Location: out.Location}, nil
}

// PublicURL returns the CDN URL when configured, otherwise the bucket URL
func (s *SpacesClient) PublicURL(_ context.Context, ref upload.ObjectRef) (string, error) {
	if ref.Key == "" {
		return "", fmt.Errorf("object reference has no key")
	}
	return s.GetFileURL(ref.Key), nil
}

// GetFileURL returns the public URL for a file
func (s *SpacesClient) GetFileURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	if s.pathURLs || strings.Contains(s.endpoint, "://") {
		return fmt.Sprintf("%s/%s/%s", withScheme(s.endpoint), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// DeleteFile deletes a file from Spaces
func (s *SpacesClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ListFiles lists every object under prefix, following continuation tokens
func (s *SpacesClient) ListFiles(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := s.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return objects, nil
}

func withScheme(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}
