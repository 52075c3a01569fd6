// Package liststore persists the subscriber directory as a human-editable
// CSV file. The first two columns are identity (email) and display name;
// every further header column is a tag name with a boolean cell per row.
//
// Load merges additively so that multiple backing sources can each
// contribute tags for the same subscriber. Save rewrites the whole file
// from a directory snapshot, which keeps the file exactly in sync with
// memory at the cost of a full rewrite per mutation.
package liststore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/signup-service/internal/directory"
	"github.com/ignite/signup-service/internal/pkg/logger"
)

// ErrNoHeader is returned when the backing file exists but has no header row.
var ErrNoHeader = errors.New("list file has no header row")

// Store reads and writes the CSV list at Path.
type Store struct {
	Path string
}

// New creates a Store backed by the file at path.
func New(path string) *Store {
	return &Store{Path: path}
}

// truthy reports whether a CSV cell marks tag membership.
func truthy(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "yes", "x":
		return true
	}
	return false
}

// Load merges the backing file into dir. A missing file is not an error:
// the list simply starts empty. Rows with a blank identity field are
// skipped. Tags already present in dir are never removed, so Load is
// idempotent and safe to call against several sources.
func (s *Store) Load(dir *directory.Directory) error {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening list file: %w", err)
	}
	defer f.Close()
	return s.merge(f, dir)
}

func (s *Store) merge(r io.Reader, dir *directory.Directory) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("reading list header: %w", err)
	}
	if len(header) < 2 {
		return ErrNoHeader
	}
	tagColumns := header[2:]

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading list row: %w", err)
		}
		if len(record) < 1 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		email := record[0]
		name := ""
		if len(record) > 1 {
			name = record[1]
		}
		var tags []string
		for i, tag := range tagColumns {
			cell := ""
			if len(record) > i+2 {
				cell = record[i+2]
			}
			if truthy(cell) {
				tags = append(tags, tag)
			}
		}
		dir.Merge(email, name, tags)
		rows++
	}
	logger.Info("list loaded", "path", s.Path, "rows", rows, "subscribers", dir.Len())
	return nil
}

// Save rewrites the backing file from a snapshot of dir. The tag columns
// are the sorted union of tags across all current entries. The rewrite is
// atomic: content goes to a temporary file in the same directory, then a
// rename replaces the target, so a crash never leaves a truncated list.
func (s *Store) Save(dir *directory.Directory) error {
	entries := dir.Snapshot()
	tags := dir.AllTags()

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp list file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeCSV(tmp, entries, tags); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp list file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replacing list file: %w", err)
	}
	logger.Debug("list saved", "path", s.Path, "subscribers", len(entries), "tags", len(tags))
	return nil
}

func writeCSV(w io.Writer, entries map[string]directory.Entry, tags []string) error {
	writer := csv.NewWriter(w)

	header := append([]string{"email", "name"}, tags...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing list header: %w", err)
	}

	// Deterministic row order keeps the file diffable and human-editable.
	for _, email := range sortedKeys(entries) {
		entry := entries[email]
		row := make([]string, 0, len(header))
		row = append(row, email, entry.Name)
		for _, tag := range tags {
			if entry.HasTag(tag) {
				row = append(row, "true")
			} else {
				row = append(row, "false")
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing list row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing list file: %w", err)
	}
	return nil
}

func sortedKeys(entries map[string]directory.Entry) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Open returns a handle on the backing file for download streaming.
func (s *Store) Open() (*os.File, error) {
	return os.Open(s.Path)
}
