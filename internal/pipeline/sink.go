package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampLayout is the layout of the timestamp prefixing every milestone line.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Sink receives progress milestones. It is write-only from the pipeline's point of view.
type Sink interface {
	Milestone(at time.Time, message string) error
}

// FileSink appends "<timestamp>: <message>" lines to a file.
// The file is opened for each write so external rotation or truncation is harmless.
type FileSink struct {
	Path string
}

// NewFileSink returns a FileSink writing to path.
func NewFileSink(path string) *FileSink { return &FileSink{Path: path} }

// Milestone appends one timestamped line to the file.
func (s *FileSink) Milestone(at time.Time, message string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create progress log directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open progress log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s: %s\n", at.Format(TimestampLayout), message); err != nil {
		f.Close()
		return fmt.Errorf("write progress log: %w", err)
	}
	return f.Close()
}

// MemorySink keeps milestones in memory.
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

// Milestone records message; the timestamp is dropped.
func (s *MemorySink) Milestone(_ time.Time, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, message)
	return nil
}

// Messages returns a copy of the recorded milestone messages.
func (s *MemorySink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}
