package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/kgviz/svc-kg/internal/util"
	"github.com/kgviz/svc-kg/pkg/graph"
	"github.com/kgviz/svc-kg/pkg/logger"
)

// NewS3Client builds a client for the S3-compatible bucket holding member
// photos (Supabase storage exposes one). Returns nil when credentials are
// absent, which disables photo resolution.
func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnvString("AWS_REGION", "us-east-1")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithBaseEndpoint(endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		logger.Warn("Failed to configure S3 client, photo resolution disabled", "err", err)
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// PhotoResolver fills Node.PhotoURL with presigned links for member photos
// stored under <prefix>/<node id>.jpg.
type PhotoResolver struct {
	client *s3.Client
	bucket string
	prefix string
	expiry time.Duration
}

func NewPhotoResolver(client *s3.Client) *PhotoResolver {
	return &PhotoResolver{
		client: client,
		bucket: util.GetEnv("AWS_BUCKET"),
		prefix: strings.Trim(util.GetEnvString("PHOTO_PREFIX", "photos"), "/"),
		expiry: time.Duration(util.GetEnvInt("PHOTO_URL_TTL", 900)) * time.Second,
	}
}

// Enabled reports whether a bucket is configured.
func (p *PhotoResolver) Enabled() bool {
	return p != nil && p.client != nil && p.bucket != ""
}

// Resolve presigns photo links for person nodes that do not already carry
// one. Lookups run concurrently with a small bound; a missing object or a
// presign failure simply leaves the field empty.
func (p *PhotoResolver) Resolve(ctx context.Context, nodes []graph.Node) {
	if !p.Enabled() {
		return
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)

	for i := range nodes {
		if nodes[i].PhotoURL != "" || !isPerson(nodes[i]) {
			continue
		}
		idx := i
		eg.Go(func() error {
			url, err := p.presign(gCtx, nodes[idx].ID)
			if err == nil {
				nodes[idx].PhotoURL = url
			}
			return nil
		})
	}

	_ = eg.Wait()
}

func (p *PhotoResolver) presign(ctx context.Context, id string) (string, error) {
	key := fmt.Sprintf("%s/%s.jpg", p.prefix, id)

	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(p.client)
	out, err := presigner.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(p.expiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign photo link: %w", err)
	}
	return out.URL, nil
}

func isPerson(n graph.Node) bool {
	t := strings.ToLower(n.Type)
	return t == "" || strings.Contains(t, "membro") || strings.Contains(t, "pessoa") || t == "person"
}
