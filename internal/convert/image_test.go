package convert

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printbridge/internal/config"
	"printbridge/internal/fetch"
)

func testFetcher() *fetch.Client {
	return fetch.NewClient(&config.FetchConfig{
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	})
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageConvert(t *testing.T) {
	data := pngBytes(t, 120, 80)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	c := NewImageConverter(testFetcher(), zap.NewNop())

	path, err := c.Convert(context.Background(), srv.URL+"/photo.png")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, ".pdf"), "got %s", path)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is not a pdf")
}

func TestImageConvertCorruptData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	c := NewImageConverter(testFetcher(), zap.NewNop())

	_, err := c.Convert(context.Background(), srv.URL+"/photo.png")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestImageConvertFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewImageConverter(testFetcher(), zap.NewNop())

	_, err := c.Convert(context.Background(), srv.URL+"/photo.png")
	assert.ErrorIs(t, err, fetch.ErrFetch)
}

func TestPageSizeFor(t *testing.T) {
	tests := []struct {
		name       string
		imgW, imgH float64
		wantW      float64
		wantH      float64
	}{
		{"small portrait keeps own size", 100, 200, 100, 200},
		{"small landscape keeps own size", 200, 100, 200, 100},
		{"square", 300, 300, 300, 300},
		{"large portrait clamps to a4", 2000, 3000, a4Width, a4Height},
		{"large landscape clamps to rotated a4", 3000, 2000, a4Height, a4Width},
		{"wide but short", 1000, 400, a4Height, 400},
		{"narrow but tall", 400, 1000, 400, a4Height},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := pageSizeFor(tt.imgW, tt.imgH)
			assert.InDelta(t, tt.wantW, w, 0.01)
			assert.InDelta(t, tt.wantH, h, 0.01)
		})
	}
}
