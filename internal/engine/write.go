package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// buildMarkdownDocument assembles the final on-disk document: a fixed
// key-order YAML-style front matter block followed by the converted
// body. Hand-rolled rather than routed through a YAML library, matching
// the original engine's exact, narrow front-matter format.
func buildMarkdownDocument(url, title, encoding, fetchedUTC string, tokenCount uint32, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "url: %s\n", url)
	fmt.Fprintf(&b, "title: %s\n", title)
	fmt.Fprintf(&b, "fetched_utc: %s\n", fetchedUTC)
	fmt.Fprintf(&b, "encoding: %s\n", encoding)
	fmt.Fprintf(&b, "token_count: %d\n", tokenCount)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}

// AtomicFileWriter writes files into dir via a temp-file-then-rename
// sequence so a reader never observes a partially written document.
type AtomicFileWriter struct {
	dir string
}

func NewAtomicFileWriter(dir string) *AtomicFileWriter {
	return &AtomicFileWriter{dir: dir}
}

// EnsureDir creates the output directory and probes it for writability.
func (w *AtomicFileWriter) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", w.dir, err)
	}
	probe, err := os.CreateTemp(w.dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("output dir %s is not writable: %w", w.dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}

// Write writes content to filename inside dir atomically: a temp file in
// the same directory is written, flushed, and fsynced, any existing
// target is removed, then the temp file is renamed into place.
func (w *AtomicFileWriter) Write(filename, content string) error {
	return w.WriteBytes(filename, []byte(content))
}

// WriteBytes is Write for binary content (e.g. a rendered PDF).
func (w *AtomicFileWriter) WriteBytes(filename string, content []byte) error {
	if err := w.EnsureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	target := filepath.Join(w.dir, filename)
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to remove existing file %s: %w", target, err)
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}
