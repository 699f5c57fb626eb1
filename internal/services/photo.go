package services

import (
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

const uploadURLExpiry = 5 * time.Minute

// PhotoService hands out presigned upload URLs for box and chat photos.
// Clients may also send images inline as data URLs.
type PhotoService struct {
	presign  *s3.PresignClient
	bucket   string
	region   string
	endpoint string
}

// NewPhotoService creates a new photo service. Static credentials are
// used when both keys are set, the default chain otherwise. endpoint
// selects an S3-compatible provider.
func NewPhotoService(ctx context.Context, region, bucket, accessKey, secretKey, endpoint string) (*PhotoService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint = strings.TrimRight(endpoint, "/")
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		presign:  s3.NewPresignClient(s3Client),
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadResponse carries the URL to PUT the image to and the URL to put
// into a box or message afterwards
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
	PhotoID   string `json:"photo_id"`
	ExpiresIn int    `json:"expires_in"`
}

// GetPreSignedURL generates a pre-signed URL for uploading a photo
func (p *PhotoService) GetPreSignedURL(ctx context.Context, sessionID string, req UploadRequest) (*UploadResponse, error) {
	if p == nil {
		return nil, ErrPhotoStorageDisabled
	}
	if req.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, fmt.Errorf("%w: content_type must be an image type", ErrInvalidInput)
	}

	photoID := uuid.New().String()
	ext := strings.ToLower(path.Ext(req.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("%s/%s%s", sessionID, photoID, ext)

	request, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PhotoURL:  p.objectURL(key),
		PhotoID:   photoID,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

func (p *PhotoService) objectURL(key string) string {
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
