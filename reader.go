package tracklog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tracklab/tracklog/internal/record"
)

// EventReader yields decoded events from one log file, bounded by the file's
// purge step. It exclusively owns its file handle and releases it on every
// terminal transition: stream exhaustion, purge cutoff, corruption, or an
// early Close by the caller.
type EventReader struct {
	path      string
	f         *os.File
	rr        *record.Reader
	dec       PayloadDecoder
	purgeStep int64
	done      bool
}

func newEventReader(path string, dec PayloadDecoder, purgeStep int64) (*EventReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &EventReader{
		path:      path,
		f:         f,
		rr:        record.NewReader(f),
		dec:       dec,
		purgeStep: purgeStep,
	}, nil
}

// Path returns the file this reader drains.
func (r *EventReader) Path() string { return r.path }

// Next returns the next surviving event. It returns io.EOF at end of data
// and at the purge boundary (the boundary event itself is dropped, not
// yielded). Checksum failures surface as errors wrapping
// record.ErrCorruptHeader or record.ErrCorruptPayload.
func (r *EventReader) Next() (*Event, error) {
	if r.done {
		return nil, io.EOF
	}
	payload, err := r.rr.Next()
	if err != nil {
		cerr := r.Close()
		if err == io.EOF {
			if cerr != nil {
				return nil, fmt.Errorf("close %s: %w", r.path, cerr)
			}
			return nil, io.EOF
		}
		return nil, errors.Join(fmt.Errorf("%s: %w", r.path, err), cerr)
	}
	ev, err := r.dec.Decode(payload)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: decode event: %w", r.path, err), r.Close())
	}
	if ev.Step >= r.purgeStep {
		if cerr := r.Close(); cerr != nil {
			return nil, fmt.Errorf("close %s: %w", r.path, cerr)
		}
		return nil, io.EOF
	}
	return ev, nil
}

// Close releases the file handle. It is idempotent; Next returns io.EOF
// after Close.
func (r *EventReader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.f.Close()
}
