package tracklog

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tracklab/tracklog/internal/record"
)

// CollectionIterator walks a collection's files in order, producing one
// bounded EventReader per file. It is single-use; restart by calling
// OpenCollection again.
type CollectionIterator struct {
	files []File
	opts  Options
	pos   int
}

// OpenCollection scans dir and returns an iterator over its valid files.
func OpenCollection(dir string, opts Options) (*CollectionIterator, error) {
	opts = opts.withDefaults()
	c, err := ScanDirectory(dir)
	if err != nil {
		return nil, err
	}
	return &CollectionIterator{files: c.Files, opts: opts}, nil
}

// Next opens a reader over the next file, bounded by the purge step derived
// from the following file's first event. It returns io.EOF after the last
// file. The caller owns the returned reader and must Close it.
func (it *CollectionIterator) Next() (*EventReader, error) {
	if it.pos >= len(it.files) {
		return nil, io.EOF
	}
	path := it.files[it.pos].Path
	purge := int64(math.MaxInt64)
	if it.opts.Purge && it.pos+1 < len(it.files) {
		step, err := peekFirstStep(it.files[it.pos+1].Path, it.opts.Decoder)
		if err != nil {
			return nil, err
		}
		// A leading step of 0 marks a fresh file, not a restart; nothing
		// to purge from this one.
		if step != 0 {
			purge = step
		}
	}
	r, err := newEventReader(path, it.opts.Decoder, purge)
	if err != nil {
		return nil, err
	}
	it.pos++
	return r, nil
}

// peekFirstStep opens path transiently, decodes exactly its first event, and
// closes the handle again. It is deliberately separate from EventReader so
// the lookahead stream's lifetime never entangles with the primary reader's.
func peekFirstStep(path string, dec PayloadDecoder) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", path, err)
	}
	defer f.Close()
	payload, err := record.NewReader(f).Next()
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", path, err)
	}
	ev, err := dec.Decode(payload)
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", path, err)
	}
	return ev.Step, nil
}
