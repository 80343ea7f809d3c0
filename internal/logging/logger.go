package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shipway/shipway/internal/security"
)

// RunLogger writes the per-run audit log file. One file is created per
// run, named with the run-start timestamp, and only ever appended to.
// Every message passes the redactor before reaching the sink so the
// access token can never end up in the file.
type RunLogger struct {
	zl       *zap.Logger
	file     *os.File
	path     string
	redactor *security.Redactor
}

// DefaultPath returns the log file path for a run starting at the given
// time: shipway-<timestamp>.log next to the executable, falling back to
// the working directory when the executable path cannot be resolved.
func DefaultPath(start time.Time) string {
	name := fmt.Sprintf("shipway-%s.log", start.Format("20060102-150405"))
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// New creates a run logger writing to the given path. A nil redactor
// disables masking.
func New(path string, redactor *security.Redactor) (*RunLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(file),
		zapcore.InfoLevel,
	)

	if redactor == nil {
		redactor = security.NewRedactor()
	}

	return &RunLogger{
		zl:       zap.New(core),
		file:     file,
		path:     path,
		redactor: redactor,
	}, nil
}

// Path returns the log file location, shown to the operator on failure.
func (l *RunLogger) Path() string {
	return l.path
}

// Infof logs an informational message.
func (l *RunLogger) Infof(format string, args ...interface{}) {
	l.zl.Info(l.render(format, args...))
}

// Successf logs a completed step. Success is an info-level record with
// an "ok" marker so the file stays grep-able for step completions.
func (l *RunLogger) Successf(format string, args ...interface{}) {
	l.zl.Info(l.render(format, args...), zap.Bool("ok", true))
}

// Warnf logs an advisory finding that did not abort the run.
func (l *RunLogger) Warnf(format string, args ...interface{}) {
	l.zl.Warn(l.render(format, args...))
}

// Errorf logs a fatal finding.
func (l *RunLogger) Errorf(format string, args ...interface{}) {
	l.zl.Error(l.render(format, args...))
}

// StepFailed logs a fatal step failure with the step name attached.
func (l *RunLogger) StepFailed(step string, err error) {
	l.zl.Error(l.redactor.Redact(err.Error()), zap.String("step", step))
}

func (l *RunLogger) render(format string, args ...interface{}) string {
	return l.redactor.Redact(fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying file.
func (l *RunLogger) Close() error {
	_ = l.zl.Sync()
	return l.file.Close()
}
