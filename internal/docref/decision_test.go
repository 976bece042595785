package docref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	const (
		fresh = "0123456789abcdef0123456789abcdef"
		model = "llama3.2:3b"
	)

	cases := []struct {
		name     string
		occ      Occurrence
		strict   bool
		decision Decision
		reason   Reason
	}{
		{
			name:     "bare directive bootstraps",
			occ:      Occurrence{},
			strict:   true,
			decision: Bootstrap,
			reason:   ReasonBootstrap,
		},
		{
			name:     "matching digest and model reuses",
			occ:      Occurrence{Hash: fresh, Model: model, Body: "cached"},
			strict:   true,
			decision: Reuse,
		},
		{
			name:     "digest mismatch regenerates",
			occ:      Occurrence{Hash: "ffff0000ffff0000ffff0000ffff0000", Model: model},
			strict:   true,
			decision: Regenerate,
			reason:   ReasonContentChanged,
		},
		{
			name:     "model mismatch regenerates under strict policy",
			occ:      Occurrence{Hash: fresh, Model: "qwen2:7b"},
			strict:   true,
			decision: Regenerate,
			reason:   ReasonModelChanged,
		},
		{
			name:     "model mismatch reuses under lenient policy",
			occ:      Occurrence{Hash: fresh, Model: "qwen2:7b"},
			strict:   false,
			decision: Reuse,
		},
		{
			name:     "missing model regenerates under strict policy",
			occ:      Occurrence{Hash: fresh},
			strict:   true,
			decision: Regenerate,
			reason:   ReasonModelChanged,
		},
		{
			name:     "digest beats model as regeneration reason",
			occ:      Occurrence{Hash: "ffff0000ffff0000ffff0000ffff0000", Model: "qwen2:7b"},
			strict:   true,
			decision: Regenerate,
			reason:   ReasonContentChanged,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, reason := Decide(&tc.occ, fresh, model, tc.strict)
			assert.Equal(t, tc.decision, decision)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "reuse", Reuse.String())
	assert.Equal(t, "bootstrap", Bootstrap.String())
	assert.Equal(t, "regenerate", Regenerate.String())
}
