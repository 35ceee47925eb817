// Package bridge orchestrates print batches: classification, conversion
// dispatch, execution, and outcome recording.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"printbridge/internal/fetch"
	"printbridge/internal/format"
	"printbridge/internal/queue"
)

var (
	ErrEmptyBatch  = errors.New("print batch is empty")
	ErrBlankSource = errors.New("print job has a blank source url")
)

// Printer executes a printable PDF for one job. Implemented by
// printer.Engine.
type Printer interface {
	Print(docPath string, job queue.Job, interactive bool) (bool, error)
}

// Converter turns one source document into a temporary PDF owned by the
// caller.
type Converter interface {
	Convert(ctx context.Context, sourceURL string) (string, error)
}

// OfficeStage is a Converter that may be unavailable when no conversion
// engine is installed.
type OfficeStage interface {
	Converter
	Available() bool
}

// Notifier receives per-job outcomes, e.g. for webhook delivery. May be nil.
type Notifier interface {
	SendJobSucceeded(job queue.Job)
	SendJobFailed(job queue.Job, reason string)
}

// Service fans a batch of job descriptors out to independent workers. One
// job's failure never affects its siblings; outcomes land in the queue model
// in completion order.
type Service struct {
	queue    *queue.Model
	fetcher  *fetch.Client
	images   Converter
	office   OfficeStage
	printer  Printer
	notifier Notifier
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewService(q *queue.Model, fetcher *fetch.Client, images Converter, office OfficeStage, printer Printer, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		queue:    q,
		fetcher:  fetcher,
		images:   images,
		office:   office,
		printer:  printer,
		notifier: notifier,
		log:      log,
	}
}

// SubmitBatch validates the batch and schedules each job for independent
// processing. It returns as soon as the batch is accepted; per-job outcomes
// are reported through the queue model.
func (s *Service) SubmitBatch(jobs []queue.Job, interactive bool) error {
	if err := validateBatch(jobs); err != nil {
		return err
	}

	for _, job := range jobs {
		s.wg.Add(1)
		go func(job queue.Job) {
			defer s.wg.Done()
			s.process(context.Background(), job, interactive)
		}(job)
	}

	return nil
}

func validateBatch(jobs []queue.Job) error {
	if len(jobs) == 0 {
		return ErrEmptyBatch
	}
	for _, job := range jobs {
		if strings.TrimSpace(job.SourceURL) == "" {
			return ErrBlankSource
		}
	}
	return nil
}

func (s *Service) process(ctx context.Context, job queue.Job, interactive bool) {
	printed, err := s.printOne(ctx, job, interactive)
	switch {
	case err != nil:
		s.log.Error("print job failed",
			zap.String("job", job.DisplayName),
			zap.String("url", job.SourceURL),
			zap.Error(err),
		)
		s.queue.AddFailed(job, err.Error())
		if s.notifier != nil {
			s.notifier.SendJobFailed(job, err.Error())
		}
	case printed:
		s.log.Info("print job completed", zap.String("job", job.DisplayName))
		s.queue.AddSucceeded(job)
		if s.notifier != nil {
			s.notifier.SendJobSucceeded(job)
		}
	default:
		// Declined interactive confirmation: neither success nor failure.
		s.log.Info("print job skipped", zap.String("job", job.DisplayName))
	}
}

func (s *Service) printOne(ctx context.Context, job queue.Job, interactive bool) (bool, error) {
	kind := format.Detect(job.SourceURL)
	s.log.Debug("job classified",
		zap.String("job", job.DisplayName),
		zap.String("format", kind.String()),
	)

	var docPath string
	var err error

	switch kind {
	case format.PDF:
		docPath, err = s.fetcher.Download(ctx, job.SourceURL)
	case format.Image:
		docPath, err = s.images.Convert(ctx, job.SourceURL)
	case format.Office:
		docPath, err = s.office.Convert(ctx, job.SourceURL)
	default:
		return false, fmt.Errorf("%w: %q", format.ErrUnsupported, format.Extension(job.SourceURL))
	}
	if err != nil {
		return false, err
	}
	defer func() {
		if rmErr := os.Remove(docPath); rmErr != nil {
			s.log.Warn("failed to remove temp document", zap.String("path", docPath), zap.Error(rmErr))
		}
	}()

	return s.printer.Print(docPath, job, interactive)
}

// OfficeAvailable reports whether the office stage can convert.
func (s *Service) OfficeAvailable() bool {
	return s.office.Available()
}

// Wait blocks until all accepted jobs have finished processing.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogSupportedFormats writes the startup format-support banner.
func (s *Service) LogSupportedFormats() {
	s.log.Info("supported formats",
		zap.String("pdf", "native"),
		zap.String("images", "png, jpg, jpeg, gif, bmp, tif, tiff"),
	)
	if s.office.Available() {
		s.log.Info("office formats enabled",
			zap.String("formats", "doc, docx, xls, xlsx, ppt, pptx, odt, ods, odp"))
	} else {
		s.log.Warn("office formats disabled: LibreOffice not detected")
	}
}
