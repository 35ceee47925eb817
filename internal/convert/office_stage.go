package convert

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"printbridge/internal/fetch"
)

// Engine is the managed conversion backend an office stage submits to.
type Engine interface {
	Available() bool
	Convert(ctx context.Context, inputPath string) (string, error)
}

// OfficeConverter fetches an office document and converts it to PDF through
// the managed engine.
type OfficeConverter struct {
	fetcher *fetch.Client
	engine  Engine
	log     *zap.Logger
}

func NewOfficeConverter(fetcher *fetch.Client, engine Engine, log *zap.Logger) *OfficeConverter {
	return &OfficeConverter{fetcher: fetcher, engine: engine, log: log}
}

// Available reports whether office conversion can be attempted at all.
func (c *OfficeConverter) Available() bool {
	return c.engine.Available()
}

// Convert downloads the document and produces a temporary PDF. The caller
// owns the returned file and must remove it. Unavailability is checked before
// any fetch work.
func (c *OfficeConverter) Convert(ctx context.Context, sourceURL string) (string, error) {
	if !c.engine.Available() {
		return "", ErrConverterUnavailable
	}

	inputPath, err := c.fetcher.Download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(inputPath)

	outputPath, err := c.engine.Convert(ctx, inputPath)
	if err != nil {
		c.log.Error("office conversion failed",
			zap.String("url", sourceURL),
			zap.String("file", filepath.Base(inputPath)),
			zap.Error(err),
		)
		return "", err
	}

	return outputPath, nil
}
