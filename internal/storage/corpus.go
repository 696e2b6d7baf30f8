package storage

import (
	"fmt"
	"os"
	"sync"
)

// CorpusWriter appends extracted page text to a plain-text corpus
// file. The file is opened once per run in append mode and is never
// truncated, so a corpus accumulates across runs. Each page's text is
// followed by a blank-line separator.
type CorpusWriter struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewCorpusWriter opens (or creates) the corpus file for appending.
func NewCorpusWriter(path string) (*CorpusWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	return &CorpusWriter{file: file, path: path}, nil
}

// Append writes one page's text plus the blank-line separator.
func (w *CorpusWriter) Append(text string) error {
	if text == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.WriteString(text + "\n\n"); err != nil {
		return fmt.Errorf("append to corpus %s: %w", w.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (w *CorpusWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
