package tracklog

import (
	"io"
	"strconv"
	"strings"

	"github.com/tracklab/tracklog/pkg/log"
)

// GroupPolicy is the pluggable grouping convention behind smart mode. The
// recombination pass uses it to decide which subsequent summary entries are
// fragments of the value that started a group, and how consumed fragments
// fold into one composite value.
//
// Policies must only group entries by tag; the pass itself guarantees the
// cursor never moves backward and never consumes entries whose tags resolve
// to a different group.
type GroupPolicy interface {
	// Fragment splits tag into its group base and 1-based fragment index.
	// ok is false when the tag does not follow the grouping convention.
	Fragment(tag string) (base string, index int, ok bool)

	// Merge folds fragment values, already in index order and all of one
	// kind, into the group's composite value. ok false declines the merge,
	// leaving the fragments to be yielded individually.
	Merge(parts []Value) (Value, bool)
}

// IndexSuffixPolicy is the default grouping convention: tags of the form
// base/1 … base/N (contiguous indexes starting at 1) are fragments of one
// logical value named base. Scalar fragments merge into a Tensor of doubles;
// tensor fragments concatenate under a new leading dimension. Other kinds
// never merge.
type IndexSuffixPolicy struct {
	// Sep separates the base from the index suffix. Empty means "/".
	Sep string
}

func (p IndexSuffixPolicy) sep() string {
	if p.Sep == "" {
		return "/"
	}
	return p.Sep
}

// Fragment implements GroupPolicy.
func (p IndexSuffixPolicy) Fragment(tag string) (string, int, bool) {
	i := strings.LastIndex(tag, p.sep())
	if i <= 0 || i == len(tag)-len(p.sep()) {
		return "", 0, false
	}
	idx, err := strconv.Atoi(tag[i+len(p.sep()):])
	if err != nil || idx < 1 {
		return "", 0, false
	}
	return tag[:i], idx, true
}

// Merge implements GroupPolicy.
func (p IndexSuffixPolicy) Merge(parts []Value) (Value, bool) {
	switch parts[0].Kind() {
	case KindScalar:
		t := &Tensor{Dims: []int64{int64(len(parts))}}
		for _, v := range parts {
			t.Doubles = append(t.Doubles, float64(v.(Scalar)))
		}
		return t, true
	case KindTensor:
		return mergeTensors(parts)
	default:
		return nil, false
	}
}

func mergeTensors(parts []Value) (Value, bool) {
	first := parts[0].(*Tensor)
	out := &Tensor{
		DType: first.DType,
		Dims:  append([]int64{int64(len(parts))}, first.Dims...),
	}
	for _, v := range parts {
		t := v.(*Tensor)
		if t.DType != first.DType || !equalDims(t.Dims, first.Dims) {
			return nil, false
		}
		out.Content = append(out.Content, t.Content...)
		out.Floats = append(out.Floats, t.Floats...)
		out.Doubles = append(out.Doubles, t.Doubles...)
	}
	return out, true
}

func equalDims(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// valueCursor walks one event's summary as a lazy sequence of (tag, value)
// pairs, applying the recombination pass when smart mode is on. Entries that
// classify to no known variant are reported through the logger and skipped.
type valueCursor struct {
	entries []SummaryEntry
	pos     int
	smart   bool
	policy  GroupPolicy
	logger  log.Logger
}

// next yields the next value, returning io.EOF once the summary is drained.
func (c *valueCursor) next() (string, Value, error) {
	for c.pos < len(c.entries) {
		e := c.entries[c.pos]
		v, err := Classify(e)
		if err != nil {
			c.logger.Warn("skipping summary entry", log.Str("tag", e.Tag), log.Err(err))
			c.pos++
			continue
		}
		if c.smart && c.policy != nil {
			if base, merged, consumed, ok := c.tryMerge(e.Tag, v); ok {
				c.pos += consumed
				return base, merged, nil
			}
		}
		c.pos++
		return e.Tag, v, nil
	}
	return "", nil, io.EOF
}

// tryMerge checks whether the entry at the cursor starts a fragment group
// and, if at least one subsequent fragment of the same group and kind
// follows contiguously, merges the run into a composite value.
func (c *valueCursor) tryMerge(tag string, first Value) (string, Value, int, bool) {
	base, idx, ok := c.policy.Fragment(tag)
	if !ok || idx != 1 {
		return "", nil, 0, false
	}
	parts := []Value{first}
	for j := c.pos + 1; j < len(c.entries); j++ {
		nb, ni, ok := c.policy.Fragment(c.entries[j].Tag)
		if !ok || nb != base || ni != len(parts)+1 {
			break
		}
		v, err := Classify(c.entries[j])
		if err != nil || v.Kind() != first.Kind() {
			break
		}
		parts = append(parts, v)
	}
	if len(parts) < 2 {
		return "", nil, 0, false
	}
	merged, ok := c.policy.Merge(parts)
	if !ok {
		return "", nil, 0, false
	}
	return base, merged, len(parts), true
}
