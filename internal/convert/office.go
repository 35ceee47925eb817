package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"printbridge/internal/config"
)

var (
	ErrConverterUnavailable = errors.New("office converter unavailable: LibreOffice not found")
	ErrConversion           = errors.New("office conversion failed")
	ErrEngineStopped        = errors.New("office engine stopped")
)

var commandContext = exec.CommandContext

// OfficeEngine manages the locally installed LibreOffice installation as a
// serialized conversion resource. Tasks run one at a time against a dedicated
// user profile; after MaxTasksPerProcess conversions the profile is reset to
// bound resource growth of the long-lived installation state.
type OfficeEngine struct {
	cfg *config.OfficeConfig
	log *zap.Logger

	binary     string
	profileDir string

	tasks  chan officeTask
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

type officeTask struct {
	ctx       context.Context
	inputPath string
	resultCh  chan officeResult
}

type officeResult struct {
	outputPath string
	err        error
}

func NewOfficeEngine(cfg *config.OfficeConfig, log *zap.Logger) *OfficeEngine {
	return &OfficeEngine{
		cfg:    cfg,
		log:    log,
		binary: detectBinary(cfg.InstallPath),
		tasks:  make(chan officeTask),
		stopCh: make(chan struct{}),
	}
}

// Available reports whether a LibreOffice installation was found.
func (e *OfficeEngine) Available() bool {
	return e.binary != ""
}

// Start launches the engine worker. It is a no-op when no installation was
// detected; office jobs then fail fast via Available.
func (e *OfficeEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.Available() || e.running {
		return nil
	}

	profileDir, err := os.MkdirTemp("", "printbridge_office_profile_")
	if err != nil {
		return fmt.Errorf("failed to create office profile dir: %w", err)
	}
	e.profileDir = profileDir
	e.running = true

	e.wg.Add(1)
	go e.worker()

	e.log.Info("office engine started",
		zap.String("binary", e.binary),
		zap.Duration("task_timeout", e.cfg.TaskTimeout),
		zap.Int("max_tasks_per_process", e.cfg.MaxTasksPerProcess),
	)
	return nil
}

// Stop shuts the engine down deterministically. In-flight tasks fail with
// ErrEngineStopped rather than hang.
func (e *OfficeEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.stopCh)
	e.wg.Wait()

	if e.profileDir != "" {
		os.RemoveAll(e.profileDir)
	}
	e.log.Info("office engine stopped")
}

// Convert submits a document to the engine and waits for the PDF result. The
// caller owns the returned file and must remove it.
func (e *OfficeEngine) Convert(ctx context.Context, inputPath string) (string, error) {
	if !e.Available() {
		return "", ErrConverterUnavailable
	}

	task := officeTask{
		ctx:       ctx,
		inputPath: inputPath,
		resultCh:  make(chan officeResult, 1),
	}

	select {
	case e.tasks <- task:
	case <-e.stopCh:
		return "", ErrEngineStopped
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrConversion, ctx.Err())
	}

	select {
	case res := <-task.resultCh:
		return res.outputPath, res.err
	case <-e.stopCh:
		return "", ErrEngineStopped
	}
}

func (e *OfficeEngine) worker() {
	defer e.wg.Done()

	taskCount := 0
	for {
		select {
		case <-e.stopCh:
			return
		case task := <-e.tasks:
			out, err := e.convertOnce(task.ctx, task.inputPath)
			task.resultCh <- officeResult{outputPath: out, err: err}

			taskCount++
			if taskCount >= e.cfg.MaxTasksPerProcess {
				e.resetProfile()
				taskCount = 0
			}
		}
	}
}

func (e *OfficeEngine) convertOnce(ctx context.Context, inputPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.TaskTimeout)
	defer cancel()

	outDir, err := os.MkdirTemp("", "printbridge_office_out_")
	if err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	args := []string{
		"--headless",
		"--norestore",
		"--nolockcheck",
		"-env:UserInstallation=" + profileURL(e.profileDir),
		"--convert-to", "pdf",
		"--outdir", outDir,
		inputPath,
	}

	cmd := commandContext(ctx, e.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(outDir)
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: timed out after %s converting %s",
				ErrConversion, e.cfg.TaskTimeout, filepath.Base(inputPath))
		}
		return "", fmt.Errorf("%w: %s: %v (%s)",
			ErrConversion, filepath.Base(inputPath), err, strings.TrimSpace(string(output)))
	}

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	produced := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(produced); err != nil {
		os.RemoveAll(outDir)
		return "", fmt.Errorf("%w: %s: no output produced", ErrConversion, base)
	}

	// Move the PDF out of the scratch dir so the caller owns a single file.
	tmp, err := os.CreateTemp("", "printbridge_output_*.pdf")
	if err != nil {
		os.RemoveAll(outDir)
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()

	if err := os.Rename(produced, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		os.RemoveAll(outDir)
		return "", fmt.Errorf("failed to move converted file: %w", err)
	}
	os.RemoveAll(outDir)

	return tmp.Name(), nil
}

func (e *OfficeEngine) resetProfile() {
	if e.profileDir == "" {
		return
	}
	if err := os.RemoveAll(e.profileDir); err != nil {
		e.log.Warn("failed to reset office profile", zap.Error(err))
		return
	}
	if err := os.MkdirAll(e.profileDir, 0o755); err != nil {
		e.log.Warn("failed to recreate office profile", zap.Error(err))
		return
	}
	e.log.Debug("office profile reset", zap.Int("after_tasks", e.cfg.MaxTasksPerProcess))
}

func profileURL(dir string) string {
	return "file://" + filepath.ToSlash(dir)
}

// detectBinary probes well-known LibreOffice installation paths for the
// current platform, then falls back to PATH lookup.
func detectBinary(installPath string) string {
	if installPath != "" {
		if bin := binaryIn(installPath); bin != "" {
			return bin
		}
		return ""
	}

	for _, dir := range installCandidates() {
		if bin := binaryIn(dir); bin != "" {
			return bin
		}
	}

	for _, name := range []string{"soffice", "libreoffice"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

func installCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\LibreOffice`,
			`C:\Program Files (x86)\LibreOffice`,
		}
	case "darwin":
		return []string{
			"/Applications/LibreOffice.app/Contents",
		}
	default:
		return []string{
			"/usr/lib/libreoffice",
			"/usr/lib64/libreoffice",
			"/opt/libreoffice",
			"/snap/libreoffice/current",
		}
	}
}

func binaryIn(installDir string) string {
	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{filepath.Join(installDir, "program", "soffice.exe")}
	case "darwin":
		candidates = []string{filepath.Join(installDir, "MacOS", "soffice")}
	default:
		candidates = []string{
			filepath.Join(installDir, "program", "soffice"),
			filepath.Join(installDir, "soffice"),
		}
	}

	for _, bin := range candidates {
		if info, err := os.Stat(bin); err == nil && !info.IsDir() {
			return bin
		}
	}
	return ""
}
