package detect

// significanceFloor keeps trace-level detector noise from accumulating into
// the composite
const significanceFloor = 0.1

// emitThreshold is the composite score above which a detection fires even
// without an individual threat
const emitThreshold = 0.7

// Outcome is the combined verdict over all detectors for one message
type Outcome struct {
	Composite float64
	Threats   []Kind
	Results   []Result
}

// Emit reports whether this outcome warrants a detection
func (o Outcome) Emit() bool {
	return o.Composite > emitThreshold || len(o.Threats) > 0
}

// Combine sums significant detector scores and collects threat kinds
func Combine(results []Result) Outcome {
	o := Outcome{Results: results}
	for _, r := range results {
		if r.Score > significanceFloor {
			o.Composite += r.Score
		}
		if r.Threat {
			o.Threats = append(o.Threats, r.Kind)
		}
	}
	return o
}
