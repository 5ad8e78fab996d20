package metric

import (
	"encoding/json"
	"sort"
)

type valueKind uint8

const (
	kindFailed valueKind = iota
	kindScalar
	kindScores
)

// Value is a metric result: a scalar, a set of named sub-scores, or the failure
// sentinel. The zero Value is the failure sentinel.
type Value struct {
	kind   valueKind
	scalar float64
	scores map[string]float64
}

// Scalar wraps a single score.
func Scalar(f float64) Value { return Value{kind: kindScalar, scalar: f} }

// Scores wraps named sub-scores. An empty map is a valid "no signal" result.
func Scores(m map[string]float64) Value {
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: kindScores, scores: cp}
}

// Failed is the sentinel recorded for a metric that could not be computed.
func Failed() Value { return Value{} }

func (v Value) IsFailed() bool { return v.kind == kindFailed }
func (v Value) IsScalar() bool { return v.kind == kindScalar }

// Float returns the scalar value.
func (v Value) Float() (float64, bool) {
	if v.kind != kindScalar {
		return 0, false
	}
	return v.scalar, true
}

// Score returns the named sub-score.
func (v Value) Score(name string) (float64, bool) {
	if v.kind != kindScores {
		return 0, false
	}
	f, ok := v.scores[name]
	return f, ok
}

// ScoreNames returns sub-score names, sorted.
func (v Value) ScoreNames() []string {
	names := make([]string, 0, len(v.scores))
	for k := range v.scores {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the failure sentinel as null, a scalar as a number and
// sub-scores as an object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindScalar:
		return json.Marshal(v.scalar)
	case kindScores:
		return json.Marshal(v.scores)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch r := raw.(type) {
	case nil:
		*v = Failed()
	case float64:
		*v = Scalar(r)
	default:
		var m map[string]float64
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		*v = Scores(m)
	}
	return nil
}

// Results maps metric name to value for one document.
type Results map[string]Value

// Flatten expands results into flat columns: "name" for scalars and
// "name.sub" for sub-scores. Failed metrics are omitted.
func (r Results) Flatten() map[string]float64 {
	out := map[string]float64{}
	for name, v := range r {
		switch v.kind {
		case kindScalar:
			out[name] = v.scalar
		case kindScores:
			for k, f := range v.scores {
				out[name+"."+k] = f
			}
		}
	}
	return out
}

// Failed lists the names of metrics that produced the failure sentinel, sorted.
func (r Results) Failed() []string {
	var names []string
	for name, v := range r {
		if v.IsFailed() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
