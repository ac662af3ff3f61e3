package tracklog

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrNoValue reports a summary entry that populates none of the recognized
// payload variants. It is value-local: traversal logs it and moves on.
var ErrNoValue = errors.New("tracklog: summary entry carries no recognized value")

// Classify resolves which variant a summary entry carries and decodes it into
// a typed Value. When more than one field could structurally apply, the fixed
// priority histogram > image > audio > tensor > scalar disambiguates.
func Classify(e SummaryEntry) (Value, error) {
	switch {
	case e.histoRaw != nil:
		return decodeHistogram(e.histoRaw)
	case e.imageRaw != nil:
		return decodeImage(e.imageRaw)
	case e.audioRaw != nil:
		return decodeAudio(e.audioRaw)
	case e.tensorRaw != nil:
		return decodeTensor(e.tensorRaw)
	case e.hasSimple:
		return Scalar(e.simple), nil
	default:
		return nil, fmt.Errorf("tag %q: %w", e.Tag, ErrNoValue)
	}
}

// HistogramProto field numbers.
const (
	fHistoMin         = 1
	fHistoMax         = 2
	fHistoNum         = 3
	fHistoSum         = 4
	fHistoSumSquares  = 5
	fHistoBucketLimit = 6
	fHistoBucket      = 7
)

func decodeHistogram(b []byte) (*Histogram, error) {
	h := &Histogram{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("histogram field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fHistoMin, fHistoMax, fHistoNum, fHistoSum, fHistoSumSquares:
			if typ != protowire.Fixed64Type {
				return nil, fmt.Errorf("histogram field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("histogram field %d: %w", num, protowire.ParseError(n))
			}
			f := math.Float64frombits(v)
			switch num {
			case fHistoMin:
				h.Min = f
			case fHistoMax:
				h.Max = f
			case fHistoNum:
				h.Num = f
			case fHistoSum:
				h.Sum = f
			case fHistoSumSquares:
				h.SumSquares = f
			}
			b = b[n:]
		case fHistoBucketLimit, fHistoBucket:
			vals, rest, err := consumeDoubles(typ, b)
			if err != nil {
				return nil, fmt.Errorf("histogram field %d: %w", num, err)
			}
			if num == fHistoBucketLimit {
				h.BucketLimits = append(h.BucketLimits, vals...)
			} else {
				h.Buckets = append(h.Buckets, vals...)
			}
			b = rest
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("histogram field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return h, nil
}

// Image message field numbers.
const (
	fImageHeight     = 1
	fImageWidth      = 2
	fImageColorspace = 3
	fImageEncoded    = 4
)

func decodeImage(b []byte) (*Image, error) {
	img := &Image{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("image field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case typ == protowire.VarintType &&
			(num == fImageHeight || num == fImageWidth || num == fImageColorspace):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("image field %d: %w", num, protowire.ParseError(n))
			}
			switch num {
			case fImageHeight:
				img.Height = int64(v)
			case fImageWidth:
				img.Width = int64(v)
			case fImageColorspace:
				img.Colorspace = int64(v)
			}
			b = b[n:]
		case num == fImageEncoded && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("image data: %w", protowire.ParseError(n))
			}
			img.Data = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("image field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return img, nil
}

// Audio message field numbers.
const (
	fAudioSampleRate   = 1
	fAudioChannels     = 2
	fAudioLengthFrames = 3
	fAudioEncoded      = 4
	fAudioContentType  = 5
)

func decodeAudio(b []byte) (*Audio, error) {
	a := &Audio{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("audio field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fAudioSampleRate && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("audio sample_rate: %w", protowire.ParseError(n))
			}
			a.SampleRate = math.Float32frombits(v)
			b = b[n:]
		case typ == protowire.VarintType && (num == fAudioChannels || num == fAudioLengthFrames):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("audio field %d: %w", num, protowire.ParseError(n))
			}
			if num == fAudioChannels {
				a.Channels = int64(v)
			} else {
				a.LengthFrames = int64(v)
			}
			b = b[n:]
		case typ == protowire.BytesType && (num == fAudioEncoded || num == fAudioContentType):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("audio field %d: %w", num, protowire.ParseError(n))
			}
			if num == fAudioEncoded {
				a.Data = v
			} else {
				a.ContentType = string(v)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("audio field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return a, nil
}

// TensorProto field numbers.
const (
	fTensorDType   = 1
	fTensorShape   = 2 // TensorShapeProto
	fTensorContent = 4
	fTensorFloats  = 5
	fTensorDoubles = 6

	fShapeDim   = 2 // repeated TensorShapeProto.Dim
	fShapeDimSz = 1
)

func decodeTensor(b []byte) (*Tensor, error) {
	t := &Tensor{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("tensor field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fTensorDType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("tensor dtype: %w", protowire.ParseError(n))
			}
			t.DType = int64(v)
			b = b[n:]
		case num == fTensorShape && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("tensor shape: %w", protowire.ParseError(n))
			}
			dims, err := decodeTensorShape(v)
			if err != nil {
				return nil, err
			}
			t.Dims = append(t.Dims, dims...)
			b = b[n:]
		case num == fTensorContent && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("tensor content: %w", protowire.ParseError(n))
			}
			t.Content = v
			b = b[n:]
		case num == fTensorFloats:
			vals, rest, err := consumeFloats(typ, b)
			if err != nil {
				return nil, fmt.Errorf("tensor float_val: %w", err)
			}
			t.Floats = append(t.Floats, vals...)
			b = rest
		case num == fTensorDoubles:
			vals, rest, err := consumeDoubles(typ, b)
			if err != nil {
				return nil, fmt.Errorf("tensor double_val: %w", err)
			}
			t.Doubles = append(t.Doubles, vals...)
			b = rest
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("tensor field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return t, nil
}

func decodeTensorShape(b []byte) ([]int64, error) {
	var dims []int64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("tensor shape tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == fShapeDim && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("tensor shape dim: %w", protowire.ParseError(n))
			}
			size, err := decodeShapeDim(v)
			if err != nil {
				return nil, err
			}
			dims = append(dims, size)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("tensor shape field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return dims, nil
}

func decodeShapeDim(b []byte) (int64, error) {
	var size int64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, fmt.Errorf("shape dim tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == fShapeDimSz && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, fmt.Errorf("shape dim size: %w", protowire.ParseError(n))
			}
			size = int64(v)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return 0, fmt.Errorf("shape dim field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return size, nil
}

// consumeDoubles reads a repeated double field, packed (bytes) or unpacked
// (one fixed64).
func consumeDoubles(typ protowire.Type, b []byte) ([]float64, []byte, error) {
	switch typ {
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		if len(v)%8 != 0 {
			return nil, nil, fmt.Errorf("packed doubles: %d bytes not a multiple of 8", len(v))
		}
		vals := make([]float64, 0, len(v)/8)
		for len(v) > 0 {
			u, m := protowire.ConsumeFixed64(v)
			if m < 0 {
				return nil, nil, protowire.ParseError(m)
			}
			vals = append(vals, math.Float64frombits(u))
			v = v[m:]
		}
		return vals, b[n:], nil
	case protowire.Fixed64Type:
		u, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		return []float64{math.Float64frombits(u)}, b[n:], nil
	default:
		return nil, nil, fmt.Errorf("unexpected wire type %d for double field", typ)
	}
}

// consumeFloats reads a repeated float field, packed or unpacked.
func consumeFloats(typ protowire.Type, b []byte) ([]float32, []byte, error) {
	switch typ {
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		if len(v)%4 != 0 {
			return nil, nil, fmt.Errorf("packed floats: %d bytes not a multiple of 4", len(v))
		}
		vals := make([]float32, 0, len(v)/4)
		for len(v) > 0 {
			u, m := protowire.ConsumeFixed32(v)
			if m < 0 {
				return nil, nil, protowire.ParseError(m)
			}
			vals = append(vals, math.Float32frombits(u))
			v = v[m:]
		}
		return vals, b[n:], nil
	case protowire.Fixed32Type:
		u, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		return []float32{math.Float32frombits(u)}, b[n:], nil
	default:
		return nil, nil, fmt.Errorf("unexpected wire type %d for float field", typ)
	}
}
