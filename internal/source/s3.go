// internal/source/s3.go
// S3-compatible archive bucket lookups. Archives mirrored to object storage
// keep one object per artifact under a per-type prefix; the bucket sits in
// the resolution chain between the local directories and the remote API.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// s3Keys maps artifact types to their object key templates.
var s3Keys = map[model.ArtifactType]string{
	model.ArtifactTranscript: "transcripts/%s.txt",
	model.ArtifactSummary:    "summaries/%s.txt",
	model.ArtifactComments:   "comments/%s.json",
	model.ArtifactMetadata:   "metadata/%s.json",
	model.ArtifactKeywords:   "keywords/%s.json",
}

// S3 resolves artifacts from an S3-compatible bucket. It supports both AWS
// S3 and MinIO-style services via a custom endpoint.
type S3 struct {
	client *s3.Client // AWS S3 client
	bucket string     // Bucket holding the mirrored archive
}

// NewS3 creates an S3 archive source.
// Parameters:
//   - endpoint: S3 service endpoint URL (empty for AWS)
//   - region: AWS region (or equivalent for S3-compatible services)
//   - bucket: bucket holding the mirrored archive
//   - accessKey, secretKey: static credentials
func NewS3(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})),
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(endpoint))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing for MinIO and other S3-compatible services.
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3{client: client, bucket: bucket}, nil
}

// Name implements Source.
func (s *S3) Name() string { return "s3" }

// Lookup implements Source. A missing object is a silent miss; any other
// bucket error is reported so the resolver can log it before falling
// through.
func (s *S3) Lookup(ctx context.Context, t model.ArtifactType, id string, _ Hint) (*Payload, error) {
	tmpl, ok := s3Keys[t]
	if !ok {
		return nil, nil
	}
	key := fmt.Sprintf(tmpl, id)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}
	return decodePayload(t, id, data)
}

// decodePayload normalizes raw artifact bytes per type. Shared by the S3 and
// remote sources, which both deliver opaque documents.
func decodePayload(t model.ArtifactType, id string, data []byte) (*Payload, error) {
	switch t {
	case model.ArtifactTranscript:
		return &Payload{Type: t, Transcript: NormalizeText(data)}, nil
	case model.ArtifactSummary:
		return &Payload{Type: t, Summary: NormalizeText(data)}, nil
	case model.ArtifactComments:
		comments, err := NormalizeComments(id, data)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: t, Comments: comments}, nil
	case model.ArtifactMetadata:
		entry, err := decodeSidecar(id, data)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: t, Metadata: entry}, nil
	case model.ArtifactKeywords:
		var kws []string
		if err := json.Unmarshal(data, &kws); err != nil {
			return nil, err
		}
		return &Payload{Type: t, Keywords: kws}, nil
	default:
		return nil, nil
	}
}
