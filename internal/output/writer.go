package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/genricoloni/mpris-status/internal/domain"
	"go.uber.org/zap"
)

// ErrOutputClosed is returned once the reading end of the output has gone away
var ErrOutputClosed = errors.New("output closed")

const (
	classPlaying = "playing"
	classPaused  = "paused"
)

// Writer serializes status records as JSON lines and flushes each one
type Writer struct {
	logger *zap.Logger
	cfg    domain.Config

	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	closed bool
}

// NewWriter creates a status record writer on top of w
func NewWriter(logger *zap.Logger, cfg domain.Config, w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &Writer{
		logger: logger,
		cfg:    cfg,
		buf:    buf,
		enc:    enc,
	}
}

// NewStdoutWriter creates a status record writer on standard output
func NewStdoutWriter(logger *zap.Logger, cfg domain.Config) *Writer {
	return NewWriter(logger, cfg, os.Stdout)
}

// ClassFor maps a playback status to the status bar CSS class
func ClassFor(status domain.PlayerStatus) string {
	switch status {
	case domain.StatusPlaying:
		return classPlaying
	case domain.StatusPaused:
		return classPaused
	default:
		return ""
	}
}

// RecordFor builds the record describing a player
func (w *Writer) RecordFor(p domain.Player) domain.StatusRecord {
	return domain.StatusRecord{
		Text:  w.cfg.Icon(),
		Class: ClassFor(p.Status),
		Alt:   p.Name,
	}
}

// Emit writes the record for the given player
func (w *Writer) Emit(p domain.Player) error {
	w.logger.Debug("Emitting player state",
		zap.String("player", p.Instance),
		zap.String("status", string(p.Status)))

	return w.write(w.RecordFor(p))
}

// EmitCleared writes the record shown when no player remains
func (w *Writer) EmitCleared() error {
	w.logger.Debug("Emitting cleared state")

	return w.write(domain.StatusRecord{Text: w.cfg.ClearedIcon()})
}

// Close writes the trailing newline and flushes
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return w.fail(err)
	}
	if err := w.buf.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

func (w *Writer) write(rec domain.StatusRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrOutputClosed
	}
	// Encode appends the newline
	if err := w.enc.Encode(rec); err != nil {
		return w.fail(err)
	}
	if err := w.buf.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

// fail translates a broken pipe into ErrOutputClosed and latches it
func (w *Writer) fail(err error) error {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
		w.closed = true
		w.logger.Info("Output closed by reader", zap.Error(err))
		return ErrOutputClosed
	}
	return fmt.Errorf("failed to write status record: %w", err)
}
