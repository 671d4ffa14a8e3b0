package imagefetch

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/relay"
	"github.com/poiesic/shopit/retry"
	"github.com/poiesic/shopit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.BaseDelay = time.Millisecond
	return p
}

func newTestMaterializer(t *testing.T, opts ...Option) *Materializer {
	t.Helper()
	opts = append([]Option{WithPolicy(fastPolicy())}, opts...)
	m, err := New(relay.New(""), opts...)
	require.NoError(t, err)
	return m
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestMaterialize_DeclaredImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	}))
	defer server.Close()

	img, err := newTestMaterializer(t).Materialize(context.Background(), server.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xe0}, img.Data)
}

func TestMaterialize_SniffsGenericContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngBytes)
	}))
	defer server.Close()

	img, err := newTestMaterializer(t).Materialize(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
}

func TestMaterialize_RejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>not found</body></html>"))
	}))
	defer server.Close()

	_, err := newTestMaterializer(t).Materialize(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestMaterialize_RejectsPageDeclaredAsImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("<!DOCTYPE html><html><body>rate limited</body></html>"))
	}))
	defer server.Close()

	_, err := newTestMaterializer(t).Materialize(context.Background(), server.URL+"/a.jpg")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestMaterialize_KeepsDeclaredTypeForUnknownBinary(t *testing.T) {
	heic := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c', 0x00, 0x00}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/heic")
		w.Write(heic)
	}))
	defer server.Close()

	img, err := newTestMaterializer(t).Materialize(context.Background(), server.URL+"/a.heic")
	require.NoError(t, err)
	assert.Equal(t, "image/heic", img.MimeType)
}

func TestMaterialize_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer server.Close()

	_, err := newTestMaterializer(t).Materialize(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMaterialize_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestMaterializer(t).Materialize(context.Background(), server.URL)
	assert.ErrorIs(t, err, retry.ErrClient)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMaterialize_EmptyRef(t *testing.T) {
	_, err := newTestMaterializer(t).Materialize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyRef)
}

func TestMaterialize_DataURL(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	img, err := newTestMaterializer(t).Materialize(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, ref, img.DataURL())
}

func TestMaterialize_BadDataURL(t *testing.T) {
	_, err := newTestMaterializer(t).Materialize(context.Background(), "data:text/plain,hello")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestMaterialize_UsesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer server.Close()

	cache, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	m := newTestMaterializer(t, WithCache(cache, time.Hour))
	ctx := context.Background()

	first, err := m.Materialize(ctx, server.URL+"/x.png")
	require.NoError(t, err)
	second, err := m.Materialize(ctx, server.URL+"/x.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	cached, err := cache.GetImage(ctx, server.URL+"/x.png")
	require.NoError(t, err)
	assert.Equal(t, &core.EncodedImage{MimeType: "image/png", Data: pngBytes}, cached)
}
