package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/config"
)

func TestOpenDisabled(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		s, err := Open(context.Background(), config.StorageConfig{Backend: backend})
		require.NoError(t, err)
		assert.Nil(t, s)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "s4"})
	assert.Error(t, err)
}

func TestNewMinioClientValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinioConfig
	}{
		{"missing endpoint", config.MinioConfig{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{"missing keys", config.MinioConfig{Endpoint: "localhost:9000", Bucket: "c"}},
		{"missing bucket", config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinioClient(tt.cfg)
			assert.Error(t, err)
		})
	}

	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "a",
		SecretKey: "b",
		Bucket:    "attachments",
	})
	require.NoError(t, err)
	assert.Equal(t, "attachments", client.Bucket())
}

func TestNewGCSClientRequiresBucket(t *testing.T) {
	_, err := NewGCSClient(context.Background(), config.GCSConfig{})
	assert.Error(t, err)
}
