// Package feedback persists free-text user feedback as an append-only flat
// log file, one timestamped line per submission. The format is meant to be
// read by a human, not parsed; rotation and structured storage are out of
// scope for the amount of feedback a single deployment collects.
package feedback

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrEmpty is returned when a submission contains no text after trimming.
var ErrEmpty = errors.New("feedback: empty submission")

// timeLayout formats the timestamp that prefixes every line.
const timeLayout = "2006-01-02 15:04:05.000000"

// FileStore appends feedback lines to a local file, creating it on first
// write. Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore that writes to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save appends one feedback entry as "<timestamp>: <text>\n". Embedded
// newlines are flattened to spaces so every entry stays a single line.
func (fs *FileStore) Save(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	text = strings.Join(strings.Fields(text), " ")

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("feedback: open file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s: %s\n", fs.now().Format(timeLayout), text)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("feedback: write: %w", err)
	}
	return nil
}
