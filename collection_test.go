package tracklog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tracklab/tracklog/internal/record"
)

// rotatedDir builds a directory where file A holds steps 5, 8, 10, 12 and
// file B resumes at step 10, the canonical restart-from-checkpoint shape.
func rotatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeLogFile(t, dir, "events.a",
		eventPayload(5, 0, scalarEntry("loss", 5)),
		eventPayload(8, 0, scalarEntry("loss", 8)),
		eventPayload(10, 0, scalarEntry("loss", 10)),
		eventPayload(12, 0, scalarEntry("loss", 12)),
	)
	writeLogFile(t, dir, "events.b",
		eventPayload(10, 0, scalarEntry("loss", 10.5)),
		eventPayload(11, 0, scalarEntry("loss", 11.5)),
	)
	return dir
}

func drainSteps(t *testing.T, r *EventReader) []int64 {
	t.Helper()
	defer r.Close()
	var steps []int64
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return steps
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		steps = append(steps, ev.Step)
	}
}

func TestPurgeTruncatesOlderFile(t *testing.T) {
	it, err := OpenCollection(rotatedDir(t), DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := it.Next()
	if err != nil {
		t.Fatalf("file a: %v", err)
	}
	got := drainSteps(t, a)
	if len(got) != 2 || got[0] != 5 || got[1] != 8 {
		t.Fatalf("purged file a steps: %v", got)
	}
	b, err := it.Next()
	if err != nil {
		t.Fatalf("file b: %v", err)
	}
	got = drainSteps(t, b)
	if len(got) != 2 || got[0] != 10 || got[1] != 11 {
		t.Fatalf("file b steps: %v", got)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("want io.EOF after last file, got %v", err)
	}
}

func TestPurgeDisabledYieldsEverything(t *testing.T) {
	opts := DefaultOptions()
	opts.Purge = false
	it, err := OpenCollection(rotatedDir(t), opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := it.Next()
	if err != nil {
		t.Fatalf("file a: %v", err)
	}
	got := drainSteps(t, a)
	if len(got) != 4 || got[2] != 10 || got[3] != 12 {
		t.Fatalf("unpurged file a steps: %v", got)
	}
}

func TestLeadingStepZeroMeansNoPurge(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "events.a",
		eventPayload(5, 0, scalarEntry("loss", 5)),
		eventPayload(8, 0, scalarEntry("loss", 8)),
	)
	// File b opens with a bookkeeping event at step 0: a fresh file, not a
	// restart.
	writeLogFile(t, dir, "events.b",
		versionPayload("brain.Event:2"),
		eventPayload(9, 0, scalarEntry("loss", 9)),
	)
	it, err := OpenCollection(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := it.Next()
	if err != nil {
		t.Fatalf("file a: %v", err)
	}
	got := drainSteps(t, a)
	if len(got) != 2 {
		t.Fatalf("file a truncated by fresh next file: %v", got)
	}
}

func TestReaderCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "events.a", eventPayload(1, 0, scalarEntry("loss", 1)))
	it, err := OpenCollection(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, err := it.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("next after close: %v", err)
	}
}

func TestStreamCorruptionIsFatal(t *testing.T) {
	dir := t.TempDir()
	good := framePayloads(t, eventPayload(1, 0, scalarEntry("loss", 1)))
	bad := framePayloads(t, eventPayload(2, 0, scalarEntry("loss", 2)))
	bad[len(bad)-1] ^= 0xff // corrupt the second record's payload checksum
	if err := os.WriteFile(filepath.Join(dir, "events.a"), append(good, bad...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	it, err := OpenCollection(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, err := it.Next()
	if err != nil {
		t.Fatalf("next file: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, record.ErrCorruptPayload) {
		t.Fatalf("want corrupt payload, got %v", err)
	}
}

func TestDecodeErrorClosesReader(t *testing.T) {
	dir := t.TempDir()
	good := framePayloads(t, eventPayload(1, 0, scalarEntry("loss", 1)))
	// A checksummed frame around bytes that are not a valid message: 0xff
	// is a truncated varint tag, so the probe admits the file but decoding
	// the second record fails.
	bad := framePayloads(t, []byte{0xff})
	if err := os.WriteFile(filepath.Join(dir, "events.a"), append(good, bad...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	it, err := OpenCollection(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, err := it.Next()
	if err != nil {
		t.Fatalf("next file: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Fatal("want decode error, got nil")
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("reader not closed after decode error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close after decode error: %v", err)
	}
}
