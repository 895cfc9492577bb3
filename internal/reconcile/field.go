package reconcile

// Source ranks how a metric value was obtained
type Source int

const (
	SourceMissing Source = iota
	SourceEstimated
	SourcePrecise
)

func (s Source) String() string {
	switch s {
	case SourcePrecise:
		return "precise"
	case SourceEstimated:
		return "estimated"
	default:
		return "missing"
	}
}

// Field is a metric value tagged with its source
type Field struct {
	Value  float64
	Source Source
}

// Precise wraps a value supplied per entity
func Precise(v float64) Field {
	return Field{Value: v, Source: SourcePrecise}
}

// Estimated wraps a value derived from coarser aggregates
func Estimated(v float64) Field {
	return Field{Value: v, Source: SourceEstimated}
}

// Known reports whether the field carries a value
func (f Field) Known() bool {
	return f.Source != SourceMissing
}

// IsEstimated reports whether the value is an estimate
func (f Field) IsEstimated() bool {
	return f.Source == SourceEstimated
}

// Offer returns the value to keep when candidate is proposed as a
// replacement. A precise value is never replaced by an estimate, and a
// missing candidate never replaces anything.
func (f Field) Offer(candidate Field) Field {
	if !candidate.Known() {
		return f
	}
	if f.Source == SourcePrecise && candidate.Source != SourcePrecise {
		return f
	}
	return candidate
}

// AsEstimate downgrades a known value to an estimate. Global figures become
// estimates when they stand in for a per-entity value.
func (f Field) AsEstimate() Field {
	if !f.Known() {
		return f
	}
	return Estimated(f.Value)
}

// Or returns f when known, else fallback
func (f Field) Or(fallback float64) float64 {
	if f.Known() {
		return f.Value
	}
	return fallback
}
