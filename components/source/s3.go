package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// parseS3 splits s3://bucket/key
func parseS3(ref string) (bucket string, key string, err error) {
	bucket, key, found := strings.Cut(strings.TrimPrefix(ref, "s3://"), "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 reference %q, expect s3://bucket/key", ref)
	}
	return bucket, key, nil
}

func loadS3(ctx context.Context, ref string, cfg *Config) (*Image, error) {
	bucket, key, err := parseS3(ref)
	if err != nil {
		return nil, err
	}
	clt := cfg.s3Client
	if clt == nil {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		clt = s3.NewFromConfig(awsCfg)
	}
	resp, err := clt.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer resp.Body.Close()
	data, err := readLimited(resp.Body, cfg.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Image{
		Name: key,
		Ext:  extOf(key),
		Data: data,
	}, nil
}
