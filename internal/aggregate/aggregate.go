package aggregate

import (
	"reflect"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

// Result is the combined collection plus every record that was skipped.
type Result struct {
	Collection geom.FeatureCollection
	Skipped    []*SourceRecordError
}

type Option func(*Aggregator)

// WithStyles replaces the default style table.
func WithStyles(t style.Table) Option {
	return func(a *Aggregator) { a.styles = t }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// Aggregator remembers its last inputs so that calling it again with equal
// sources returns the very same Result.
type Aggregator struct {
	styles style.Table
	log    zerolog.Logger

	primed bool
	last   []Source
	result Result
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{styles: style.Defaults(), log: log.Logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Aggregate maps every source through the coordinate transform, skipping
// and reporting records that fail, concatenates them in source then record
// order and resolves each feature's style. Nothing is deduplicated.
func (a *Aggregator) Aggregate(sources ...Source) Result {
	if a.primed && reflect.DeepEqual(a.last, sources) {
		return a.result
	}
	res := Result{Collection: geom.NewFeatureCollection()}
	for _, src := range sources {
		for i, rec := range src.Records {
			f, err := recordFeature(src, i, rec)
			if err != nil {
				skip := &SourceRecordError{Source: src.Name, Index: i, ID: f.ID, Err: err}
				a.log.Warn().
					Err(err).
					Str("source", src.Name).
					Int("index", i).
					Str("id", f.ID.Key()).
					Msg("Skipping source record")
				res.Skipped = append(res.Skipped, skip)
				continue
			}
			res.Collection.Append(a.styled(f))
		}
		for _, f := range src.Features {
			res.Collection.Append(a.styled(f))
		}
	}
	a.log.Debug().
		Int("sources", len(sources)).
		Int("features", res.Collection.Len()).
		Int("skipped", len(res.Skipped)).
		Msg("Aggregated sources")

	a.primed = true
	a.last = snapshot(sources)
	a.result = res
	return res
}

// Reset drops the memoised result.
func (a *Aggregator) Reset() {
	a.primed = false
	a.last = nil
	a.result = Result{}
}

func (a *Aggregator) styled(f geom.Feature) geom.Feature {
	return f.WithProperties(style.Resolve(f, a.styles).Apply(f.Properties))
}

// snapshot deep-copies the records so a caller editing its buffers in place
// does not alias the memo key.
func snapshot(sources []Source) []Source {
	out := make([]Source, len(sources))
	for i, s := range sources {
		out[i] = s
		if s.Records != nil {
			out[i].Records = make([]Record, len(s.Records))
			for j, r := range s.Records {
				if r == nil {
					continue
				}
				out[i].Records[j] = Record(copyValue(map[string]any(r)).(map[string]any))
			}
		}
		if s.Features != nil {
			out[i].Features = append([]geom.Feature(nil), s.Features...)
		}
	}
	return out
}

// copyValue copies nested maps and slices; scalars are returned as is.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, e := range t {
			cp[k] = copyValue(e)
		}
		return cp
	case Record:
		return Record(copyValue(map[string]any(t)).(map[string]any))
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = copyValue(e)
		}
		return cp
	case []float64:
		return append([]float64(nil), t...)
	case [][]float64:
		cp := make([][]float64, len(t))
		for i, e := range t {
			cp[i] = append([]float64(nil), e...)
		}
		return cp
	case *geom.LatLng:
		if t == nil {
			return t
		}
		c := *t
		return &c
	case geom.NativeRing:
		return append(geom.NativeRing(nil), t...)
	case []geom.LatLng:
		return append([]geom.LatLng(nil), t...)
	case []map[string]any:
		cp := make([]map[string]any, len(t))
		for i, e := range t {
			cp[i] = copyValue(e).(map[string]any)
		}
		return cp
	}
	return v
}
