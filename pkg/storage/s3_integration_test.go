//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

// TestS3Store_Integration runs the store against LocalStack. Requires Docker.
func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := localstack.Run(ctx, "localstack/localstack:3.0",
		testcontainers.WithEnv(map[string]string{"SERVICES": "s3"}),
	)
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}()

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
	)
	require.NoError(t, err)

	store := NewS3Store(cfg, "rackfit-reports", func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	store.Prefix = "runs"

	_, err = store.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("rackfit-reports")})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "r00_s00.txt", []byte("Number of deployed VM: 2\n")))

	data, err := store.Get(ctx, "r00_s00.txt")
	require.NoError(t, err)
	assert.Equal(t, "Number of deployed VM: 2\n", string(data))

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"r00_s00.txt"}, keys)

	_, err = store.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
