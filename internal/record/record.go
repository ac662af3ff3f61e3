// Package record frames and deframes checksummed records in an event log
// stream.
//
// Wire layout per record:
//
//	length   8B  little-endian int64, counts payload bytes
//	crc      4B  masked CRC-32C of the 8 length bytes
//	payload  length bytes
//	crc      4B  masked CRC-32C of the payload bytes
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tracklab/tracklog/internal/crc"
)

// ErrCorruptHeader reports a length header that failed its checksum or could
// not be read in full.
var ErrCorruptHeader = errors.New("record: corrupt header")

// ErrCorruptPayload reports a payload that failed its checksum or ended short
// of the declared length.
var ErrCorruptPayload = errors.New("record: corrupt payload")

const headerSize = 8

// Reader deframes records from a stream it exclusively owns. It advances
// monotonically and never seeks.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader over r. The caller retains responsibility for
// closing the underlying stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next reads one record and returns its payload. It returns io.EOF when the
// stream is cleanly exhausted, ErrCorruptHeader or ErrCorruptPayload (wrapped)
// on checksum failure or truncation mid-record.
func (r *Reader) Next() ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("short length header: %w", ErrCorruptHeader)
	}
	var sum [4]byte
	if _, err := io.ReadFull(r.r, sum[:]); err != nil {
		return nil, fmt.Errorf("short header checksum: %w", ErrCorruptHeader)
	}
	if !crc.Valid(hdr[:], binary.LittleEndian.Uint32(sum[:])) {
		return nil, fmt.Errorf("length header checksum mismatch: %w", ErrCorruptHeader)
	}

	n := int64(binary.LittleEndian.Uint64(hdr[:]))
	if n < 0 {
		return nil, fmt.Errorf("negative payload length %d: %w", n, ErrCorruptHeader)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, fmt.Errorf("short payload (want %d bytes): %w", n, ErrCorruptPayload)
	}
	if _, err := io.ReadFull(r.r, sum[:]); err != nil {
		return nil, fmt.Errorf("short payload checksum: %w", ErrCorruptPayload)
	}
	if !crc.Valid(payload, binary.LittleEndian.Uint32(sum[:])) {
		return nil, fmt.Errorf("payload checksum mismatch: %w", ErrCorruptPayload)
	}
	return payload, nil
}

// Append writes one framed record for payload to w. It exists for building
// fixtures and conformance tests; the reader side is the supported surface.
func Append(w io.Writer, payload []byte) error {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(int64(len(payload))))

	buf := make([]byte, 0, headerSize+4+len(payload)+4)
	buf = append(buf, hdr[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, crc.Mask(crc.Checksum(hdr[:])))
	buf = append(buf, payload...)
	buf = binary.LittleEndian.AppendUint32(buf, crc.Mask(crc.Checksum(payload)))

	_, err := w.Write(buf)
	return err
}
