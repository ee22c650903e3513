// Package buildlog records packaging runs to an append-only JSONL log.
//
// The log is diagnostic only: callers treat write failures as best-effort
// and never fail a packaging run because of them.
package buildlog

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType identifies a build log event.
type EventType string

const (
	EventRunStart    EventType = "RUN_START"
	EventModPackaged EventType = "MOD_PACKAGED"
	EventModFailed   EventType = "MOD_FAILED"
	EventRunEnd      EventType = "RUN_END"
	EventRotation    EventType = "ROTATION"
)

// LogFileName is the active log segment name inside the log directory.
const LogFileName = "weipack-log.jsonl"

// DefaultRotationSize is the segment size that triggers rotation (10 MB).
const DefaultRotationSize = 10 << 20

// Event is a single JSONL record.
type Event struct {
	Timestamp         time.Time         `json:"timestamp"`
	RunID             string            `json:"runId"`
	EventType         EventType         `json:"eventType"`
	Mod               string            `json:"mod,omitempty"`
	Version           string            `json:"version,omitempty"`
	Archive           string            `json:"archive,omitempty"`
	WeiDUTag          string            `json:"weiduTag,omitempty"`
	DeletedDuplicates []string          `json:"deletedDuplicates,omitempty"`
	Error             string            `json:"error,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Config controls where the log lives and when it rotates.
type Config struct {
	Directory    string
	RotationSize int64 // bytes; <= 0 uses DefaultRotationSize
}

// Writer appends events to the build log.
type Writer struct {
	mu           sync.Mutex
	file         *os.File
	writer       *bufio.Writer
	logPath      string
	rotationSize int64
	currentRun   string
}

// NewWriter opens (or creates) the build log in the configured directory.
func NewWriter(config Config) (*Writer, error) {
	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(config.Directory, LogFileName)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening build log: %w", err)
	}

	rotationSize := config.RotationSize
	if rotationSize <= 0 {
		rotationSize = DefaultRotationSize
	}

	return &Writer{
		file:         file,
		writer:       bufio.NewWriter(file),
		logPath:      logPath,
		rotationSize: rotationSize,
	}, nil
}

// generateRunID returns a UUID v4 string.
func generateRunID() (string, error) {
	uuid := make([]byte, 16)
	if _, err := rand.Read(uuid); err != nil {
		return "", fmt.Errorf("generating run ID: %w", err)
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16]), nil
}

// StartRun writes a RUN_START event and returns the generated run ID.
func (w *Writer) StartRun(appVersion, rootPath string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID, err := generateRunID()
	if err != nil {
		return "", err
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRunStart,
		Metadata: map[string]string{
			"appVersion": appVersion,
			"root":       rootPath,
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return "", err
	}

	w.currentRun = runID
	return runID, nil
}

// RecordPackaged writes a MOD_PACKAGED event for a successfully built archive.
func (w *Writer) RecordPackaged(mod, version, archive, weiduTag string, deleted []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return fmt.Errorf("no active run: call StartRun first")
	}

	return w.writeEventLocked(Event{
		Timestamp:         time.Now().UTC(),
		RunID:             w.currentRun,
		EventType:         EventModPackaged,
		Mod:               mod,
		Version:           version,
		Archive:           archive,
		WeiDUTag:          weiduTag,
		DeletedDuplicates: deleted,
	})
}

// RecordFailure writes a MOD_FAILED event for a mod that could not be packaged.
func (w *Writer) RecordFailure(mod, errMsg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return fmt.Errorf("no active run: call StartRun first")
	}

	return w.writeEventLocked(Event{
		Timestamp: time.Now().UTC(),
		RunID:     w.currentRun,
		EventType: EventModFailed,
		Mod:       mod,
		Error:     errMsg,
	})
}

// EndRun writes a RUN_END event with the run's counters.
func (w *Writer) EndRun(packaged, failed int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return fmt.Errorf("no active run: call StartRun first")
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     w.currentRun,
		EventType: EventRunEnd,
		Metadata: map[string]string{
			"packaged": fmt.Sprintf("%d", packaged),
			"failed":   fmt.Sprintf("%d", failed),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return err
	}

	w.currentRun = ""
	return nil
}

// writeEventLocked marshals the event, appends it as one line, flushes, and
// rotates the segment when it has grown past the rotation size.
func (w *Writer) writeEventLocked(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if _, err := w.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flushing event: %w", err)
	}

	if event.EventType != EventRotation {
		if err := w.checkAndRotate(); err != nil {
			return fmt.Errorf("rotating log: %w", err)
		}
	}

	return nil
}

// checkAndRotate renames an oversize segment aside and reopens a fresh one.
func (w *Writer) checkAndRotate() error {
	info, err := os.Stat(w.logPath)
	if err != nil {
		return err
	}
	if info.Size() < w.rotationSize {
		return nil
	}

	rotatedName := fmt.Sprintf("weipack-log-%s.jsonl", time.Now().UTC().Format("20060102-150405"))

	rotation := Event{
		Timestamp: time.Now().UTC(),
		RunID:     w.currentRun,
		EventType: EventRotation,
		Metadata:  map[string]string{"rotatedTo": rotatedName},
	}
	if err := w.writeEventLocked(rotation); err != nil {
		return err
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing segment: %w", err)
	}
	if err := os.Rename(w.logPath, filepath.Join(filepath.Dir(w.logPath), rotatedName)); err != nil {
		return fmt.Errorf("renaming segment: %w", err)
	}

	file, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening new segment: %w", err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)

	return nil
}

// LogPath returns the path of the active log segment.
func (w *Writer) LogPath() string {
	return w.logPath
}

// Close flushes buffered events and closes the log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flushing on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing build log: %w", err)
	}
	return nil
}
