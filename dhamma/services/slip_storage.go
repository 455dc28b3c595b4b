package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dhammagenesis/gacha/dhamma/economy/topup"
)

// SpacesService archives verified payment slips to DigitalOcean Spaces
// (S3-compatible) for audit.
type SpacesService struct {
	client   *s3.Client
	bucket   string
	region   string
	SlipRoot string
}

var _ topup.SlipArchiver = (*SpacesService)(nil)

func NewSpacesService(spacesKey, spacesSecret, region, bucket, slipRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	return &SpacesService{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		region:   region,
		SlipRoot: strings.TrimPrefix(slipRoot, "/"),
	}, nil
}

// Archive stores the slip image keyed by the bank transaction reference and
// returns the object key.
func (s *SpacesService) Archive(ctx context.Context, transRef string, image []byte) (string, error) {
	key := fmt.Sprintf("%s/%s/%s.jpg", s.SlipRoot, time.Now().Format("2006-01"), transRef)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(image),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive slip %s: %w", transRef, err)
	}
	return key, nil
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
