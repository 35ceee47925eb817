// Package convert turns non-PDF source documents into printable PDF files.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"printbridge/internal/fetch"
)

var ErrDecode = errors.New("image decode failed")

// A4 page envelope in PDF points.
const (
	a4Width  = 595.28
	a4Height = 841.89
)

// ImageConverter renders a raster image onto a single PDF page, scaled to
// fit and centered.
type ImageConverter struct {
	fetcher *fetch.Client
	log     *zap.Logger
}

func NewImageConverter(fetcher *fetch.Client, log *zap.Logger) *ImageConverter {
	return &ImageConverter{fetcher: fetcher, log: log}
}

// Convert fetches the image and writes a one-page PDF to a temporary file.
// The caller owns the file and must remove it.
func (c *ImageConverter) Convert(ctx context.Context, sourceURL string) (string, error) {
	data, err := c.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	c.log.Debug("image decoded",
		zap.String("url", sourceURL),
		zap.String("format", kind),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)

	path, err := imageToPDF(img)
	if err != nil {
		return "", err
	}

	c.log.Debug("image converted", zap.String("url", sourceURL), zap.String("output", path))
	return path, nil
}

func imageToPDF(img image.Image) (string, error) {
	imgWidth := float64(img.Bounds().Dx())
	imgHeight := float64(img.Bounds().Dy())
	if imgWidth == 0 || imgHeight == 0 {
		return "", fmt.Errorf("%w: empty image", ErrDecode)
	}

	pageWidth, pageHeight := pageSizeFor(imgWidth, imgHeight)

	scale := pageWidth / imgWidth
	if s := pageHeight / imgHeight; s < scale {
		scale = s
	}
	scaledWidth := imgWidth * scale
	scaledHeight := imgHeight * scale
	x := (pageWidth - scaledWidth) / 2
	y := (pageHeight - scaledHeight) / 2

	// Re-encode as PNG so one embedded format covers every decoder,
	// including bmp and tiff which fpdf cannot read natively.
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &buf)
	pdf.ImageOptions("page", x, y, scaledWidth, scaledHeight, false, opts, 0, "")

	tmp, err := os.CreateTemp("", "printbridge_page_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()

	if err := pdf.OutputFileAndClose(tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}

	return tmp.Name(), nil
}

// pageSizeFor bounds the page by the A4 envelope while preserving the
// image's orientation: the larger image dimension maps to the envelope's
// larger dimension.
func pageSizeFor(imgWidth, imgHeight float64) (w, h float64) {
	if imgWidth > imgHeight {
		return min(imgWidth, a4Height), min(imgHeight, a4Width)
	}
	return min(imgWidth, a4Width), min(imgHeight, a4Height)
}
