package tracklog

// Event is one decoded unit of the log. Bookkeeping events (start-of-file
// version markers and the like) carry no summary.
type Event struct {
	WallTime    float64
	Step        int64
	FileVersion string
	Summary     []SummaryEntry
}

// SummaryEntry is one tagged value slot in an event's summary. Entry order
// is significant: the recombination pass reasons about adjacency. The
// payload variant stays raw until Classify decodes it.
type SummaryEntry struct {
	Tag string

	simple    float32
	hasSimple bool
	histoRaw  []byte
	imageRaw  []byte
	audioRaw  []byte
	tensorRaw []byte
}

// Kind identifies which variant a Value carries.
type Kind int

const (
	KindScalar Kind = iota
	KindHistogram
	KindImage
	KindAudio
	KindTensor
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindHistogram:
		return "histogram"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindTensor:
		return "tensor"
	default:
		return "unknown"
	}
}

// Value is one typed metric value decoded from a summary entry.
type Value interface {
	Kind() Kind
}

// Scalar is a single floating-point metric value.
type Scalar float64

// Kind implements Value.
func (Scalar) Kind() Kind { return KindScalar }

// Histogram is a bucketed distribution of values.
type Histogram struct {
	Min, Max   float64
	Num        float64
	Sum        float64
	SumSquares float64
	// BucketLimits holds the right edge of each bucket; Buckets holds the
	// per-bucket counts. Both have equal length.
	BucketLimits []float64
	Buckets      []float64
}

// Kind implements Value.
func (*Histogram) Kind() Kind { return KindHistogram }

// Image is an encoded image value.
type Image struct {
	Height, Width int64
	Colorspace    int64
	Data          []byte
}

// Kind implements Value.
func (*Image) Kind() Kind { return KindImage }

// Audio is an encoded audio clip value.
type Audio struct {
	SampleRate   float32
	Channels     int64
	LengthFrames int64
	ContentType  string
	Data         []byte
}

// Kind implements Value.
func (*Audio) Kind() Kind { return KindAudio }

// Tensor is an n-dimensional array value. Depending on the writer, the
// elements live in Content (raw bytes in dtype layout) or in one of the
// typed slices.
type Tensor struct {
	DType   int64
	Dims    []int64
	Content []byte
	Floats  []float32
	Doubles []float64
}

// Kind implements Value.
func (*Tensor) Kind() Kind { return KindTensor }
