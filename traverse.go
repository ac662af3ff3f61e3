package tracklog

import (
	"io"

	"github.com/tracklab/tracklog/pkg/log"
)

// Options configures collection traversal.
type Options struct {
	// Purge truncates an older file's tail at the step where the next file
	// resumed.
	Purge bool
	// Smart enables the recombination pass over summary entries.
	Smart bool
	// Tags restricts ForEachValue to these tags. Nil means all tags.
	Tags map[string]struct{}
	// Steps restricts traversal to these steps. Nil means all steps.
	Steps map[int64]struct{}
	// Decoder decodes record payloads. Nil means DefaultDecoder.
	Decoder PayloadDecoder
	// Policy is the grouping convention for smart mode. Nil means
	// IndexSuffixPolicy with "/" as separator.
	Policy GroupPolicy
	// Logger receives value-local diagnostics. Nil means no logging.
	Logger log.Logger
}

// DefaultOptions returns the stock configuration: purge on, smart on, no
// filtering.
func DefaultOptions() Options {
	return Options{Purge: true, Smart: true}
}

func (o Options) withDefaults() Options {
	if o.Decoder == nil {
		o.Decoder = DefaultDecoder()
	}
	if o.Policy == nil {
		o.Policy = IndexSuffixPolicy{}
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	return o
}

// ForEachValue drains every summary value in the collection under dir, in
// file order then stream order, invoking fn once per (tag, step, value) that
// survives the step and tag filters. Stream corruption aborts the traversal
// and is returned; so is any non-nil error from fn.
func ForEachValue(dir string, opts Options, fn func(tag string, step int64, v Value) error) error {
	opts = opts.withDefaults()
	it, err := OpenCollection(dir, opts)
	if err != nil {
		return err
	}
	for {
		r, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := drainValues(r, opts, fn); err != nil {
			return err
		}
	}
}

func drainValues(r *EventReader, opts Options, fn func(tag string, step int64, v Value) error) error {
	defer r.Close()
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if opts.Steps != nil {
			if _, ok := opts.Steps[ev.Step]; !ok {
				continue
			}
		}
		err = Values(ev, opts, func(tag string, v Value) error {
			return fn(tag, ev.Step, v)
		})
		if err != nil {
			return err
		}
	}
}

// Values iterates one event's summary as (tag, value) pairs, applying the
// recombination pass and the tag filter from opts. Events without a summary
// yield nothing. Callers that also need the event's step or wall time can
// pair this with ForEachEvent.
func Values(ev *Event, opts Options, fn func(tag string, v Value) error) error {
	if len(ev.Summary) == 0 {
		return nil
	}
	opts = opts.withDefaults()
	cur := &valueCursor{
		entries: ev.Summary,
		smart:   opts.Smart,
		policy:  opts.Policy,
		logger:  opts.Logger,
	}
	for {
		tag, v, err := cur.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if opts.Tags != nil {
			if _, ok := opts.Tags[tag]; !ok {
				continue
			}
		}
		if err := fn(tag, v); err != nil {
			return err
		}
	}
}

// ForEachEvent drains every event in the collection under dir, bookkeeping
// events included, invoking fn once per event surviving the step filter.
func ForEachEvent(dir string, opts Options, fn func(ev *Event) error) error {
	opts = opts.withDefaults()
	it, err := OpenCollection(dir, opts)
	if err != nil {
		return err
	}
	for {
		r, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := drainEvents(r, opts, fn); err != nil {
			return err
		}
	}
}

func drainEvents(r *EventReader, opts Options, fn func(ev *Event) error) error {
	defer r.Close()
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if opts.Steps != nil {
			if _, ok := opts.Steps[ev.Step]; !ok {
				continue
			}
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
