package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Solo Farming", "Solo Farming"},
		{`Chapter 12: "The Fall"`, "Chapter 12_ _The Fall_"},
		{"a/b\\c|d?e*f", "a_b_c_d_e_f"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in))
	}
}

func TestPageFileName(t *testing.T) {
	assert.Equal(t, "page_001.jpg", PageFileName(1))
	assert.Equal(t, "page_042.jpg", PageFileName(42))
	assert.Equal(t, "page_120.jpg", PageFileName(120))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/Downloads/toonpull")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Downloads", "toonpull"), expanded)

	absolute, err := ExpandPath("/tmp/toonpull")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/toonpull", absolute)
}

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0, 0, 0, 0, 0}, "jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}, "png"},
		{"gif", append([]byte("GIF89a"), 0, 0, 0, 0, 0, 0), "gif"},
		{"webp", append([]byte("RIFF"), 0, 0, 0, 0, 'W', 'E', 'B', 'P'), "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImageFormat(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DetectImageFormat([]byte("<html>"))
	assert.Error(t, err)

	_, err = DetectImageFormat([]byte{0xFF, 0xD8})
	assert.Error(t, err)
}

func TestSaveAsJPEGWritesRawJPEG(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}
	dest := filepath.Join(t.TempDir(), "page_001.jpg")

	require.NoError(t, SaveAsJPEG(data, dest))

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestSaveAsJPEGRejectsGarbage(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "page_001.jpg")
	assert.Error(t, SaveAsJPEG([]byte("<html>blocked</html>"), dest))
	assert.Error(t, SaveAsJPEG(nil, dest))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10 * time.Millisecond)
	defer limiter.Stop()

	start := time.Now()
	limiter.Wait()
	limiter.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	defer limiter.Stop()

	start := time.Now()
	limiter.Wait()
	assert.Less(t, time.Since(start), 5*time.Millisecond)
}
