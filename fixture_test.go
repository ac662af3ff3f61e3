package tracklog

// Fixture encoders for tests: build protobuf event payloads and framed log
// files the way a conforming training logger would.

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tracklab/tracklog/internal/record"
)

func scalarEntry(tag string, v float32) []byte {
	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	b = protowire.AppendTag(b, fValueSimple, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(v))
	return b
}

func histoMsg(h Histogram) []byte {
	var b []byte
	b = protowire.AppendTag(b, fHistoMin, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.Min))
	b = protowire.AppendTag(b, fHistoMax, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.Max))
	b = protowire.AppendTag(b, fHistoNum, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.Num))
	b = protowire.AppendTag(b, fHistoSum, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.Sum))
	b = protowire.AppendTag(b, fHistoSumSquares, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.SumSquares))
	b = protowire.AppendTag(b, fHistoBucketLimit, protowire.BytesType)
	b = protowire.AppendBytes(b, packedDoubles(h.BucketLimits))
	b = protowire.AppendTag(b, fHistoBucket, protowire.BytesType)
	b = protowire.AppendBytes(b, packedDoubles(h.Buckets))
	return b
}

func histoEntry(tag string, h Histogram) []byte {
	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	b = protowire.AppendTag(b, fValueHisto, protowire.BytesType)
	b = protowire.AppendBytes(b, histoMsg(h))
	return b
}

func imageEntry(tag string, img Image) []byte {
	var m []byte
	m = protowire.AppendTag(m, fImageHeight, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(img.Height))
	m = protowire.AppendTag(m, fImageWidth, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(img.Width))
	m = protowire.AppendTag(m, fImageColorspace, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(img.Colorspace))
	m = protowire.AppendTag(m, fImageEncoded, protowire.BytesType)
	m = protowire.AppendBytes(m, img.Data)

	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	b = protowire.AppendTag(b, fValueImage, protowire.BytesType)
	b = protowire.AppendBytes(b, m)
	return b
}

func audioEntry(tag string, a Audio) []byte {
	var m []byte
	m = protowire.AppendTag(m, fAudioSampleRate, protowire.Fixed32Type)
	m = protowire.AppendFixed32(m, math.Float32bits(a.SampleRate))
	m = protowire.AppendTag(m, fAudioChannels, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(a.Channels))
	m = protowire.AppendTag(m, fAudioLengthFrames, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(a.LengthFrames))
	m = protowire.AppendTag(m, fAudioEncoded, protowire.BytesType)
	m = protowire.AppendBytes(m, a.Data)
	m = protowire.AppendTag(m, fAudioContentType, protowire.BytesType)
	m = protowire.AppendString(m, a.ContentType)

	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	b = protowire.AppendTag(b, fValueAudio, protowire.BytesType)
	b = protowire.AppendBytes(b, m)
	return b
}

func tensorMsg(t Tensor) []byte {
	var m []byte
	m = protowire.AppendTag(m, fTensorDType, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(t.DType))
	var shape []byte
	for _, d := range t.Dims {
		var dim []byte
		dim = protowire.AppendTag(dim, fShapeDimSz, protowire.VarintType)
		dim = protowire.AppendVarint(dim, uint64(d))
		shape = protowire.AppendTag(shape, fShapeDim, protowire.BytesType)
		shape = protowire.AppendBytes(shape, dim)
	}
	m = protowire.AppendTag(m, fTensorShape, protowire.BytesType)
	m = protowire.AppendBytes(m, shape)
	if len(t.Content) > 0 {
		m = protowire.AppendTag(m, fTensorContent, protowire.BytesType)
		m = protowire.AppendBytes(m, t.Content)
	}
	if len(t.Doubles) > 0 {
		m = protowire.AppendTag(m, fTensorDoubles, protowire.BytesType)
		m = protowire.AppendBytes(m, packedDoubles(t.Doubles))
	}
	return m
}

func tensorEntry(tag string, t Tensor) []byte {
	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	b = protowire.AppendTag(b, fValueTensor, protowire.BytesType)
	b = protowire.AppendBytes(b, tensorMsg(t))
	return b
}

// emptyEntry carries a tag and none of the recognized variants.
func emptyEntry(tag string) []byte {
	var b []byte
	b = protowire.AppendTag(b, fValueTag, protowire.BytesType)
	b = protowire.AppendString(b, tag)
	return b
}

func packedDoubles(vals []float64) []byte {
	var b []byte
	for _, v := range vals {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

// eventPayload encodes an Event message for the given step and summary
// entries. A nil entries slice produces a bookkeeping event.
func eventPayload(step int64, wallTime float64, entries ...[]byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, fEventWallTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(wallTime))
	b = protowire.AppendTag(b, fEventStep, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(step))
	if len(entries) > 0 {
		var sum []byte
		for _, e := range entries {
			sum = protowire.AppendTag(sum, fSummaryValue, protowire.BytesType)
			sum = protowire.AppendBytes(sum, e)
		}
		b = protowire.AppendTag(b, fEventSummary, protowire.BytesType)
		b = protowire.AppendBytes(b, sum)
	}
	return b
}

func versionPayload(version string) []byte {
	var b []byte
	b = protowire.AppendTag(b, fEventStep, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)
	b = protowire.AppendTag(b, fEventFileVersion, protowire.BytesType)
	b = protowire.AppendString(b, version)
	return b
}

func framePayloads(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range payloads {
		if err := record.Append(&buf, p); err != nil {
			t.Fatalf("frame payload: %v", err)
		}
	}
	return buf.Bytes()
}

func writeLogFile(t *testing.T, dir, name string, payloads ...[]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, framePayloads(t, payloads...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
