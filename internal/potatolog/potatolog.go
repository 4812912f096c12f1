// Package potatolog keeps JSON log output in memory, so it can be shown
// inside the terminal UI while the screen owns stderr.
package potatolog

import (
	"encoding/json"
	"fmt"
	"sync"
)

// LogEntry is a single decoded log entry.
type LogEntry = map[string]any

// DefaultCapacity is the number of entries GlobalMemoryLogReaderWriter keeps.
const DefaultCapacity = 1000

// GlobalMemoryLogReaderWriter is a global MemoryLogReaderWriter.
var GlobalMemoryLogReaderWriter = NewMemoryLogReaderWriter(DefaultCapacity)

// MemoryLogReaderWriter is an in-memory log reader and writer keeping the most
// recent entries up to its capacity.
// It is meant to be the writer of a zerolog.Logger.
type MemoryLogReaderWriter struct {
	mtx      sync.Mutex
	capacity int
	log      []LogEntry
}

// NewMemoryLogReaderWriter returns a log keeping at most capacity entries.
// A non-positive capacity keeps everything.
func NewMemoryLogReaderWriter(capacity int) *MemoryLogReaderWriter {
	return &MemoryLogReaderWriter{capacity: capacity}
}

// Write appends a log entry to the log, dropping the oldest one if full.
func (w *MemoryLogReaderWriter) Write(p []byte) (int, error) {
	entry := LogEntry{}
	err := json.Unmarshal(p, &entry)
	if err != nil {
		return 0, fmt.Errorf("could not unmarshal log entry (err:%s) (input:'%s')", err.Error(), string(p))
	}

	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.log = append(w.log, entry)
	if w.capacity > 0 && len(w.log) > w.capacity {
		w.log = w.log[len(w.log)-w.capacity:]
	}
	return len(p), nil
}

// Get returns a copy of the log, oldest entry first.
func (w *MemoryLogReaderWriter) Get() []LogEntry {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	result := make([]LogEntry, len(w.log))
	copy(result, w.log)
	return result
}

// ForInstance returns the entries logged for the given editor instance,
// i.e. those with a matching "instance" field.
func (w *MemoryLogReaderWriter) ForInstance(id string) []LogEntry {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	var result []LogEntry
	for _, entry := range w.log {
		if entry["instance"] == id {
			result = append(result, entry)
		}
	}
	return result
}

// LogReader allows reading access to a log.
type LogReader interface {
	Get() []LogEntry
	ForInstance(id string) []LogEntry
}
