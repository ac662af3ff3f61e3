package tracklog

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// PayloadDecoder turns one record payload into a typed Event. Implementations
// must treat the payload as immutable and may retain sub-slices of it.
type PayloadDecoder interface {
	Decode(payload []byte) (*Event, error)
}

// DefaultDecoder returns the built-in decoder for the protobuf event payloads
// written by TensorBoard-compatible training loggers.
func DefaultDecoder() PayloadDecoder { return wireCodec{} }

// Event message field numbers.
const (
	fEventWallTime    = 1 // double
	fEventStep        = 2 // int64
	fEventFileVersion = 3 // string
	fEventSummary     = 5 // Summary message
)

// Summary and Summary.Value field numbers.
const (
	fSummaryValue = 1 // repeated Value message

	fValueTag    = 1 // string
	fValueSimple = 2 // float
	fValueImage  = 4 // Image message
	fValueHisto  = 5 // HistogramProto message
	fValueAudio  = 6 // Audio message
	fValueTensor = 8 // TensorProto message
)

// wireCodec decodes the handful of event fields this reader consumes,
// straight off the protobuf wire without generated code. Sub-messages for
// heavyweight variants are retained raw and decoded lazily by Classify.
type wireCodec struct{}

func (wireCodec) Decode(payload []byte) (*Event, error) {
	ev := &Event{}
	b := payload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("event field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fEventWallTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("event wall_time: %w", protowire.ParseError(n))
			}
			ev.WallTime = math.Float64frombits(v)
			b = b[n:]
		case num == fEventStep && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("event step: %w", protowire.ParseError(n))
			}
			ev.Step = int64(v)
			b = b[n:]
		case num == fEventFileVersion && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("event file_version: %w", protowire.ParseError(n))
			}
			ev.FileVersion = string(v)
			b = b[n:]
		case num == fEventSummary && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("event summary: %w", protowire.ParseError(n))
			}
			entries, err := decodeSummary(v)
			if err != nil {
				return nil, err
			}
			ev.Summary = append(ev.Summary, entries...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("event field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return ev, nil
}

func decodeSummary(b []byte) ([]SummaryEntry, error) {
	var entries []SummaryEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("summary field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == fSummaryValue && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("summary value: %w", protowire.ParseError(n))
			}
			e, err := decodeSummaryEntry(v)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("summary field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return entries, nil
}

func decodeSummaryEntry(b []byte) (SummaryEntry, error) {
	var e SummaryEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, fmt.Errorf("summary entry tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fValueTag && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, fmt.Errorf("summary entry tag field: %w", protowire.ParseError(n))
			}
			e.Tag = string(v)
			b = b[n:]
		case num == fValueSimple && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return e, fmt.Errorf("summary entry simple_value: %w", protowire.ParseError(n))
			}
			e.simple = math.Float32frombits(v)
			e.hasSimple = true
			b = b[n:]
		case typ == protowire.BytesType &&
			(num == fValueImage || num == fValueHisto || num == fValueAudio || num == fValueTensor):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, fmt.Errorf("summary entry field %d: %w", num, protowire.ParseError(n))
			}
			switch num {
			case fValueImage:
				e.imageRaw = v
			case fValueHisto:
				e.histoRaw = v
			case fValueAudio:
				e.audioRaw = v
			case fValueTensor:
				e.tensorRaw = v
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, fmt.Errorf("summary entry field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return e, nil
}
