// Package zip packs a beat's stored artifacts into one downloadable
// archive.
package zip

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Entry names one on-disk file to include in an archive.
type Entry struct {
	Name string
	Path string
}

// ErrNoFiles reports that none of the requested entries exist on disk.
var ErrNoFiles = errors.New("zip: no files to archive")

// Archive packs the named files into a single zip. An entry whose file
// has gone missing is skipped so one pruned artifact does not break the
// rest of the bundle; any other failure aborts.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	packed := 0
	for _, entry := range entries {
		data, err := os.ReadFile(entry.Path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("zip: read %s: %w", entry.Name, err)
		}
		w, err := zw.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("zip: add %s: %w", entry.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Name, err)
		}
		packed++
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize archive: %w", err)
	}
	if packed == 0 {
		return nil, ErrNoFiles
	}
	return buf.Bytes(), nil
}
