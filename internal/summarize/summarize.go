// Package summarize produces short page summaries through an external
// text-generation backend. The backend is consumed purely as "given text,
// return a summary string, or fail"; everything else (prompting, trimming,
// error normalization) lives here.
package summarize

import (
	"context"
	"fmt"
	"strings"
)

// Generator turns page content into a short summary using the given model.
//
// Implementations must honor ctx cancellation and surface every backend
// failure as a *GenerationError. A failed call is terminal for the caller's
// current pass; retry happens naturally on the next refresh while the cache
// is still stale.
type Generator interface {
	Generate(ctx context.Context, content []byte, model string) (string, error)
}

// promptTemplate is the fixed instruction wrapped around page content.
// %s is replaced with the raw page text.
const promptTemplate = `You are writing cross-reference previews for a documentation site.
Summarize the following page in two to three sentences so a reader knows
whether to follow the link. Respond with only the summary text, no headings
and no quotation marks.

%s`

// buildPrompt embeds content into the instruction template.
func buildPrompt(content []byte) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(string(content)))
}

// cleanResponse normalizes backend output into directive body text.
func cleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	// Models occasionally wrap the whole answer in quotes despite instructions.
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
