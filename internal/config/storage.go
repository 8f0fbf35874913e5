package config

// This file defines the object-storage client constructor.  Uploaded logos,
// menu photos and rendered QR codes are stored in an S3-compatible bucket
// (Cloudflare R2 in production).  When credentials are missing the function
// returns nil and the caller should fall back to a disabled storage path.

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client builds an S3 client pointed at the account's R2 endpoint using
// static credentials.  A TLS 1.2+ transport is enforced for all bucket calls.
func NewS3Client(cfg Config) *s3.Client {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.AccessKeySec == "" {
		return nil
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},
	}
	httpClient := &http.Client{Transport: tr, Timeout: 30 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySec, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})
}
