package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		wantErr  bool
	}{
		{"plain host", "localhost:9000", false, false},
		{"http scheme", "http://localhost:9000", false, false},
		{"https scheme", "https://s3.amazonaws.com", false, false},
		{"ssl flag", "minio.internal:9000", true, false},
		{"empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{
				Endpoint:  tt.endpoint,
				AccessKey: "key",
				SecretKey: "secret",
				UseSSL:    tt.useSSL,
				Region:    "us-east-1",
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		raw    string
		host   string
		secure bool
	}{
		{"localhost:9000", "localhost:9000", false},
		{"http://localhost:9000/", "localhost:9000", false},
		{"https://s3.amazonaws.com", "s3.amazonaws.com", true},
		{"  minio:9000 ", "minio:9000", false},
	}

	for _, tt := range tests {
		host, secure := splitEndpoint(tt.raw)
		assert.Equal(t, tt.host, host, tt.raw)
		assert.Equal(t, tt.secure, secure, tt.raw)
	}
}

func TestNewTransport(t *testing.T) {
	tr := newTransport(5 * time.Second)
	assert.Equal(t, 5*time.Second, tr.TLSHandshakeTimeout)
	assert.Equal(t, 5*time.Second, tr.ResponseHeaderTimeout)
}
