package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/finsite/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        string
		wantErr     error
	}{
		{"declared image type", "image/jpeg", []byte("jpegish"), "image/jpeg", nil},
		{"declared with params", "image/png; charset=binary", pngHeader, "image/png", nil},
		{"sniffed", "application/octet-stream", pngHeader, "image/png", nil},
		{"not an image", "", []byte("hello world"), "", ErrNotImage},
		{"empty", "image/png", nil, "", ErrEmptyImage},
		{"too large", "image/png", make([]byte, MaxImageBytes+1), "", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImageType(tt.contentType, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataURISink_Store(t *testing.T) {
	uri, err := NewDataURISink().Store(context.Background(), "logo.png", "image/png", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,YWJj", uri)
}

func TestNewSink_DisabledUsesDataURI(t *testing.T) {
	sink, err := NewSink(config.StorageConfig{}, zap.NewNop())
	require.NoError(t, err)
	_, ok := sink.(*DataURISink)
	assert.True(t, ok)
}

func TestNewS3Sink_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Sink(nil)
		require.Error(t, err)
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3Sink(&config.StorageConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a key pair returns error", func(t *testing.T) {
		_, err := NewS3Sink(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
	})

	t.Run("public url derived from endpoint", func(t *testing.T) {
		sink, err := NewS3Sink(&config.StorageConfig{
			Bucket: "images", AccessKey: "k", SecretKey: "s",
			Endpoint: "http://minio:9000", UsePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/images", sink.publicBaseURL)
	})

	t.Run("public url defaults to aws virtual host", func(t *testing.T) {
		sink, err := NewS3Sink(&config.StorageConfig{Bucket: "images", Region: "eu-west-1", AccessKey: "k", SecretKey: "s"})
		require.NoError(t, err)
		assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com", sink.publicBaseURL)
	})
}

func TestS3Sink_Store(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotType, gotBody = r.URL.Path, r.Header.Get("Content-Type"), body
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewS3Sink(&config.StorageConfig{
		Bucket:        "images",
		AccessKey:     "test-key",
		SecretKey:     "test-secret",
		Endpoint:      server.URL,
		UsePathStyle:  true,
		PublicBaseURL: "https://cdn.finsite.example",
	})
	require.NoError(t, err)
	sink.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	url, err := sink.Store(context.Background(), "hero.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.finsite.example/console/2024/03/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasPrefix(gotPath, "/images/console/2024/03/"), gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Contains(t, string(gotBody), "PNG")
}

func TestS3Sink_RejectsNonImage(t *testing.T) {
	sink, err := NewS3Sink(&config.StorageConfig{Bucket: "images", AccessKey: "k", SecretKey: "s", Endpoint: "http://127.0.0.1:1", UsePathStyle: true})
	require.NoError(t, err)
	_, err = sink.Store(context.Background(), "notes.txt", "text/plain", []byte("plain text"))
	assert.ErrorIs(t, err, ErrNotImage)
}
