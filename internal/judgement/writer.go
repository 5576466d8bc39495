package judgement

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Record is one judged query: its text, the user's description and the ids
// of the documents marked relevant, in the order they were entered.
type Record struct {
	Query       string
	Description string
	DocIDs      []uint64
}

// Writer appends records as three lines: query, description, space-separated
// document ids.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Record(rec Record) error {
	ids := make([]string, len(rec.DocIDs))
	for i, id := range rec.DocIDs {
		ids[i] = strconv.FormatUint(id, 10)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, "%s\n%s\n%s\n", rec.Query, rec.Description, strings.Join(ids, " ")); err != nil {
		return fmt.Errorf("writing judgement: %w", err)
	}
	return nil
}

// FileWriter is a Writer backed by a file it owns.
type FileWriter struct {
	*Writer
	f *os.File
}

// CreateFile truncates or creates path, making parent directories as needed.
func CreateFile(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening judgement file %s: %w", path, err)
	}
	return &FileWriter{Writer: NewWriter(f), f: f}, nil
}

func (fw *FileWriter) Close() error {
	return fw.f.Close()
}
