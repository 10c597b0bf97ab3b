package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goerrors "github.com/goliatone/go-errors"
)

// UploadURLSigner hands out pre-signed PUT URLs so clients upload media
// directly to the bucket and only the resulting URL travels through the API.
type UploadURLSigner interface {
	GenerateUploadURL(ctx context.Context, fileType string) (string, error)
}

// Config holds the bucket coordinates.
type Config struct {
	Bucket  string
	Region  string
	Expires time.Duration
}

// S3Signer signs upload URLs against an S3 bucket.
type S3Signer struct {
	presigner *s3.PresignClient
	bucket    string
	expires   time.Duration
}

var _ UploadURLSigner = (*S3Signer)(nil)

// NewS3Signer builds a signer from the ambient AWS credential chain.
func NewS3Signer(ctx context.Context, cfg Config) (*S3Signer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not load AWS configuration")
	}

	expires := cfg.Expires
	if expires <= 0 {
		expires = 60 * time.Second
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3Signer{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		expires:   expires,
	}, nil
}

// GenerateUploadURL signs a PUT for a fresh random key. The folder follows
// the declared file type; unknown types land in uploads/.
func (s *S3Signer) GenerateUploadURL(ctx context.Context, fileType string) (string, error) {
	key, err := randomKey()
	if err != nil {
		return "", err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(folderFor(fileType) + "/" + key),
		ContentType: aws.String("application/octet-stream"),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "could not sign upload URL")
	}

	return req.URL, nil
}

func folderFor(fileType string) string {
	switch fileType {
	case "image":
		return "images"
	case "document":
		return "documents"
	default:
		return "uploads"
	}
}

func randomKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "could not generate upload key")
	}
	return hex.EncodeToString(buf), nil
}
