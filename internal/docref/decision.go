package docref

// Decision is the cache verdict for one occurrence.
type Decision int

const (
	// Reuse keeps the stored summary verbatim, user edits included.
	Reuse Decision = iota
	// Bootstrap generates a first summary for a bare directive.
	Bootstrap
	// Regenerate replaces a summary whose digest or model no longer matches.
	Regenerate
)

func (d Decision) String() string {
	switch d {
	case Reuse:
		return "reuse"
	case Bootstrap:
		return "bootstrap"
	case Regenerate:
		return "regenerate"
	default:
		return "unknown"
	}
}

// Reason explains a Bootstrap or Regenerate decision.
type Reason string

const (
	ReasonBootstrap      Reason = "bootstrap"
	ReasonContentChanged Reason = "content-changed"
	ReasonModelChanged   Reason = "model-changed"
)

// Decide compares the occurrence's stored attributes against the fresh digest
// of the target content and the configured model. A stored summary is trusted
// iff the stored digest equals the fresh one and, under the strict policy,
// the stored model matches the configured model.
func Decide(occ *Occurrence, fresh, model string, strictModel bool) (Decision, Reason) {
	if !occ.Stored() {
		return Bootstrap, ReasonBootstrap
	}
	if occ.Hash != fresh {
		return Regenerate, ReasonContentChanged
	}
	if strictModel && occ.Model != model {
		return Regenerate, ReasonModelChanged
	}
	return Reuse, ""
}
