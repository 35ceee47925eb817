// Package printer submits printable PDF documents to the system printing
// subsystem over IPP.
package printer

import (
	"errors"
	"fmt"
	"sort"

	ipp "github.com/phin1x/go-ipp"
	"go.uber.org/zap"

	"printbridge/internal/config"
	"printbridge/internal/queue"
)

var (
	ErrPrintFailed      = errors.New("print submission failed")
	ErrNoPrinter        = errors.New("no printer available")
	errEnumerateFailure = errors.New("printer enumeration failed")
)

const (
	orientationPortrait  = 3
	orientationLandscape = 4
)

// Confirmer obtains user confirmation before an interactive job is
// submitted. Returning false means the job is skipped, not failed.
type Confirmer interface {
	ConfirmPrint(job queue.Job) bool
}

type ippSubmitter interface {
	PrintFile(filePath, printer string, jobAttributes map[string]interface{}) (int, error)
}

type cupsEnumerator interface {
	GetPrinters(attributes []string) (map[string]ipp.Attributes, error)
}

// Engine binds print jobs to the configured CUPS destination.
type Engine struct {
	cfg       *config.PrinterConfig
	log       *zap.Logger
	client    ippSubmitter
	cups      cupsEnumerator
	confirmer Confirmer
}

func NewEngine(cfg *config.PrinterConfig, confirmer Confirmer, log *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       log,
		client:    ipp.NewIPPClient(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.UseTLS),
		cups:      ipp.NewCUPSClient(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.UseTLS),
		confirmer: confirmer,
	}
}

// Print submits the document for the given job. It returns false with a nil
// error when an interactive confirmation was declined; that outcome is a
// skip, not a failure.
func (e *Engine) Print(docPath string, job queue.Job, interactive bool) (bool, error) {
	if interactive && e.confirmer != nil && !e.confirmer.ConfirmPrint(job) {
		e.log.Info("print declined by user", zap.String("job", job.DisplayName))
		return false, nil
	}

	name, err := e.printerName()
	if err != nil {
		return false, err
	}

	jobID, err := e.client.PrintFile(docPath, name, jobAttributes(job))
	if err != nil {
		return false, fmt.Errorf("%w: printer %q: %v", ErrPrintFailed, name, err)
	}

	e.log.Info("print job submitted",
		zap.String("job", job.DisplayName),
		zap.String("printer", name),
		zap.Int("ipp_job_id", jobID),
	)
	return true, nil
}

// AvailablePrinters lists printer names known to CUPS, for display only.
func (e *Engine) AvailablePrinters() ([]string, error) {
	printers, err := e.cups.GetPrinters([]string{"printer-name"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errEnumerateFailure, err)
	}

	names := make([]string, 0, len(printers))
	for name := range printers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (e *Engine) printerName() (string, error) {
	if e.cfg.Name != "" {
		return e.cfg.Name, nil
	}

	names, err := e.AvailablePrinters()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPrinter, err)
	}
	if len(names) == 0 {
		return "", ErrNoPrinter
	}
	return names[0], nil
}

// jobAttributes maps descriptor fields onto IPP job attributes. All pages
// print scaled to fit the target page.
func jobAttributes(job queue.Job) map[string]interface{} {
	attrs := map[string]interface{}{
		"orientation-requested": orientationPortrait,
		"print-scaling":         "fit",
	}
	if job.Landscape {
		attrs["orientation-requested"] = orientationLandscape
	}
	if job.DisplayName != "" {
		attrs["job-name"] = job.DisplayName
	}
	return attrs
}
