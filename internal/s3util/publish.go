// Package s3util publishes local clips to S3 and hands back short-lived
// presigned URLs. Audio-aware models only accept remote media, so local
// files take this detour before an omni analysis.
package s3util

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BucketEnv names the bucket used for temporary analysis uploads.
const BucketEnv = "BROLL_ANALYSIS_BUCKET"

// DefaultExpiry bounds how long a published clip stays reachable.
const DefaultExpiry = time.Hour

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=broll-media-cli"

// Publisher uploads clips and mints presigned GET URLs for them.
type Publisher struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// New builds a Publisher from the ambient AWS configuration. The bucket
// comes from BROLL_ANALYSIS_BUCKET.
func New(ctx context.Context) (*Publisher, error) {
	bucket := os.Getenv(BucketEnv)
	if bucket == "" {
		return nil, fmt.Errorf("%s is not set; audio-visual analysis of local files needs an upload bucket", BucketEnv)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &Publisher{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  DefaultExpiry,
	}, nil
}

// PublishedClip is an uploaded object and the URL a model can fetch it
// from until the expiry passes.
type PublishedClip struct {
	Key string
	URL string
}

// Publish uploads a local video and returns a presigned GET URL for it.
// Callers should Remove the clip once analysis finishes.
func (p *Publisher) Publish(ctx context.Context, localPath string) (*PublishedClip, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(ext)
	if !strings.HasPrefix(contentType, "video/") {
		contentType = "video/mp4"
	}
	key := fmt.Sprintf("analysis/%s%s", uuid.NewString(), ext)

	log.Debug().
		Str("path", localPath).
		Str("bucket", p.bucket).
		Str("key", key).
		Msg("Publishing clip for analysis")

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &p.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
		Tagging:     aws.String(projectTag),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", localPath, err)
	}

	result, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &p.bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = p.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("presign GetObject: %w", err)
	}

	log.Info().Str("key", key).Msg("Clip published for analysis")
	return &PublishedClip{Key: key, URL: result.URL}, nil
}

// Remove deletes a published clip. Best effort: a leftover object
// expires with the presigned URL anyway, so failures only log.
func (p *Publisher) Remove(ctx context.Context, clip *PublishedClip) {
	if clip == nil {
		return
	}
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &p.bucket, Key: &clip.Key,
	})
	if err != nil {
		log.Warn().Err(err).Str("key", clip.Key).Msg("Failed to delete published clip")
	}
}

// TagObject applies the project cost-allocation tag to an existing
// object, for files that reached the bucket outside Publish.
func TagObject(ctx context.Context, client *s3.Client, bucket, key string) error {
	_, err := client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: &bucket,
		Key:    &key,
		Tagging: &s3types.Tagging{
			TagSet: []s3types.Tag{
				{Key: aws.String("Project"), Value: aws.String("broll-media-cli")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("tag s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
