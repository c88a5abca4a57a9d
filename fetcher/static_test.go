package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *StaticFetcher {
	t.Helper()
	f, err := NewStaticFetcher()
	require.NoError(t, err)
	f.retryBaseDelay = 5 * time.Millisecond
	return f
}

func TestFetchPageRetriesOnServerError(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	page, err := newTestFetcher(t).FetchPage(context.Background(), server.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", page.HTML)
	assert.Equal(t, int64(3), hits.Load())
}

func TestFetchPageDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).FetchPage(context.Background(), server.URL, "")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchPageExhaustsRetries(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	_, err := f.FetchPage(context.Background(), server.URL, "")
	require.Error(t, err)
	assert.Equal(t, int64(f.maxRetries), hits.Load())
}

func TestFetchPageSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := newTestFetcher(t).FetchPage(context.Background(), server.URL, "https://example.com/series/x/")
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "https://example.com/series/x/", gotReferer)
}

func TestFetchPageDecompressesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte("<html>compressed</html>"))
		gz.Close()

		// Bypass the transparent net/http gzip handling to exercise the
		// magic-byte path.
		w.Header().Set("Content-Type", "text/html")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	page, err := newTestFetcher(t).FetchPage(context.Background(), server.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "<html>compressed</html>", page.HTML)
}

func TestFetchAssetMergesHeaders(t *testing.T) {
	var gotReferer, gotOrigin string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotOrigin = r.Header.Get("Origin")
		w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer server.Close()

	headers := AssetHeaders("https://example.com/series/x/chapter-1/")
	data, err := newTestFetcher(t).FetchAsset(context.Background(), server.URL+"/01.jpg", headers)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
	assert.Equal(t, "https://example.com/series/x/chapter-1/", gotReferer)
	assert.Equal(t, "https://example.com", gotOrigin)
}

func TestAssetHeaders(t *testing.T) {
	h := AssetHeaders("https://example.com/series/x/chapter-1/")
	assert.Equal(t, "https://example.com/series/x/chapter-1/", h.Get("Referer"))
	assert.Equal(t, "https://example.com", h.Get("Origin"))

	assert.Empty(t, AssetHeaders(""))
}

func TestProbe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/untyped.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher(t)
	ctx := context.Background()

	assert.True(t, f.Probe(ctx, server.URL+"/image.jpg", nil))
	assert.True(t, f.Probe(ctx, server.URL+"/untyped.jpg", nil))
	assert.False(t, f.Probe(ctx, server.URL+"/missing.jpg", nil))
	assert.False(t, f.Probe(ctx, server.URL+"/page.html", nil))
}

func TestSetCookies(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	require.NoError(t, f.SetCookies(server.URL, []*http.Cookie{{Name: "session", Value: "abc123", Path: "/"}}))

	_, err := f.FetchPage(context.Background(), server.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", gotCookie)
}

func TestDecompressBodyPassthrough(t *testing.T) {
	body := []byte("<html>plain</html>")
	out, compressed, err := DecompressBody(body, "")
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, body, out)
}
