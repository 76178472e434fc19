package geom

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// Recognised property keys. Anything else passes through untouched.
const (
	PropName        = "name"
	PropDescription = "description"
	PropStrokeColor = "strokeColor"
	PropStrokeWidth = "strokeWidth"
	PropFillColor   = "fillColor"
	PropColor       = "color"
)

// FeatureID is either a string or an integer id.
type FeatureID struct {
	str     string
	num     int64
	numeric bool
}

func StringID(s string) FeatureID { return FeatureID{str: s} }
func IntID(n int64) FeatureID     { return FeatureID{num: n, numeric: true} }

func (id FeatureID) IsZero() bool    { return !id.numeric && id.str == "" }
func (id FeatureID) IsNumeric() bool { return id.numeric }

// Key is the stable render key.
func (id FeatureID) Key() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

func (id FeatureID) String() string { return id.Key() }

// Value returns the id as a string or int64.
func (id FeatureID) Value() any {
	if id.numeric {
		return id.num
	}
	return id.str
}

func (id FeatureID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *FeatureID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = IntID(i)
		return nil
	}
	*id = StringID(n.String())
	return nil
}

// Properties is the open property map of a feature.
type Properties map[string]any

// Clone returns a shallow copy; nil stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy of p with key set to v.
func (p Properties) With(key string, v any) Properties {
	out := p.Clone()
	if out == nil {
		out = Properties{}
	}
	out[key] = v
	return out
}

func (p Properties) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Properties) Float(key string) (float64, bool) {
	return ToFloat(p[key])
}

// ToFloat accepts the numeric shapes JSON and YAML decoders produce.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Feature is an immutable tagged geometry. Edits go through the With
// methods, which return a new value.
type Feature struct {
	ID         FeatureID
	Geometry   Geometry
	Properties Properties
}

func (f Feature) WithProperties(p Properties) Feature {
	f.Properties = p.Clone()
	return f
}

func (f Feature) WithProperty(key string, v any) Feature {
	f.Properties = f.Properties.With(key, v)
	return f
}

func (f Feature) Name() string { return f.Properties.String(PropName) }

// Type returns the geometry discriminator, empty for a missing geometry.
func (f Feature) Type() Type {
	if f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoType()
}

// FeatureCollection keeps features in insertion order.
type FeatureCollection struct {
	Features []Feature
}

func NewFeatureCollection(fs ...Feature) FeatureCollection {
	out := make([]Feature, 0, len(fs))
	return FeatureCollection{Features: append(out, fs...)}
}

func (fc *FeatureCollection) Append(fs ...Feature) {
	fc.Features = append(fc.Features, fs...)
}

func (fc FeatureCollection) Len() int { return len(fc.Features) }

// Bound is the union of every feature's bound; ok is false when there is
// nothing to bound.
func (fc FeatureCollection) Bound() (b orb.Bound, ok bool) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if _, skip := f.Geometry.(Unsupported); skip {
			continue
		}
		gb := f.Geometry.Bound()
		if !ok {
			b, ok = gb, true
			continue
		}
		b = b.Union(gb)
	}
	return b, ok
}
