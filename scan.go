package tracklog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tracklab/tracklog/internal/record"
)

// File is one member of a Collection.
type File struct {
	Path string
}

// Collection is the ordered set of valid log files under one directory.
// Order is the lexicographic sort of directory entries, which is assumed to
// match chronological write order.
type Collection struct {
	Dir   string
	Files []File
}

// ScanDirectory lists dir and keeps the entries whose first record passes
// the checksum gate. Entries that fail the probe are unrelated artifacts
// sharing the directory, not errors.
func ScanDirectory(dir string) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	c := &Collection{Dir: dir}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		if probe(path) {
			c.Files = append(c.Files, File{Path: path})
		}
	}
	return c, nil
}

// probe opens path transiently and validates its first record's header and
// payload checksums. The handle is closed before returning.
func probe(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, err = record.NewReader(f).Next()
	return err == nil
}
