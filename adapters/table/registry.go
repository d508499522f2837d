// Package table reads time series tables from files.
//
// Every format shares one layout: a header row "Time;Version;<series...>", then one row per
// (version, time). All versions must carry the same times in the same order.
package table

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// Reader decodes one file format into a table
type Reader interface {
	// Format is the registry key, e.g. "csv"
	Format() string

	// Extensions lists the file extensions handled, with the dot
	Extensions() []string

	Read(r io.Reader) (*timeseries.InMemoryTable, error)
}

// Registry holds the readers by format and by extension
type Registry struct {
	mu          sync.RWMutex
	readers     map[string]Reader
	byExtension map[string]Reader
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		readers:     make(map[string]Reader),
		byExtension: make(map[string]Reader),
	}
}

// Default returns a registry with the CSV and XLSX readers.
// sep is the CSV field separator.
func Default(sep rune) *Registry {
	r := NewRegistry()
	r.Register(NewCSVReader(sep))
	r.Register(NewXLSXReader())
	return r
}

// Register adds a reader. Panics if the format or an extension is already taken.
func (r *Registry) Register(reader Reader) {
	if err := r.RegisterSafe(reader); err != nil {
		panic(err.Error())
	}
}

// RegisterSafe adds a reader returning an error instead of panicking
func (r *Registry) RegisterSafe(reader Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	format := strings.ToLower(reader.Format())
	if _, exists := r.readers[format]; exists {
		return fmt.Errorf("reader already registered: %s", format)
	}
	for _, ext := range reader.Extensions() {
		if _, exists := r.byExtension[strings.ToLower(ext)]; exists {
			return fmt.Errorf("extension already registered: %s", ext)
		}
	}

	r.readers[format] = reader
	for _, ext := range reader.Extensions() {
		r.byExtension[strings.ToLower(ext)] = reader
	}
	return nil
}

// Get returns a reader by format
func (r *Registry) Get(format string) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reader, ok := r.readers[strings.ToLower(format)]
	return reader, ok
}

// ForPath returns the reader handling the extension of path
func (r *Registry) ForPath(path string) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reader, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
	return reader, ok
}

// Formats lists the registered formats, sorted
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.readers))
	for format := range r.readers {
		out = append(out, format)
	}
	slices.Sort(out)
	return out
}

// ReadFile reads path with the reader of its extension
func (r *Registry) ReadFile(path string) (*timeseries.InMemoryTable, error) {
	reader, ok := r.ForPath(path)
	if !ok {
		return nil, errors.Newf(errors.TypeInput, "unsupported table format %q (known: %s)",
			filepath.Ext(path), strings.Join(r.Formats(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to open table %s", path)
	}
	defer f.Close()

	t, err := reader.Read(f)
	if err != nil {
		var typed *errors.Error
		if stderrors.As(err, &typed) {
			return nil, typed.WithContext("file", path)
		}
		return nil, errors.Wrapf(errors.TypeParsing, err, "failed to read table %s", path)
	}
	return t, nil
}
