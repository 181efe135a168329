// Package persona defines the audience voices and the prompt templates used
// to phrase answers for each of them.
package persona

import "fmt"

// Persona selects the audience voice an answer is written for.
type Persona string

const (
	// ProductOwner is the default voice: precise, data-forward, and focused on
	// product performance.
	ProductOwner Persona = "product_owner"
	// Marketing is enthusiastic and benefit-oriented, aimed at campaign copy.
	Marketing Persona = "marketing"
)

// Default is the persona used when the request names none.
const Default = ProductOwner

// Normalize maps free-form input to a known persona, falling back to Default
// for empty or unknown values.
func Normalize(raw string) Persona {
	switch Persona(raw) {
	case ProductOwner, Marketing:
		return Persona(raw)
	}
	return Default
}

var rewriteTemplates = map[Persona]string{
	ProductOwner: `You are writing for a product owner. Rewrite the answer below
so it is precise and data-driven. Keep every number, date, and product name
exactly as given. Be concise and avoid marketing language.`,
	Marketing: `You are writing for a marketing manager. Rewrite the answer below
in an enthusiastic, benefit-oriented tone suited for campaign planning.
Keep every number, date, and product name exactly as given.`,
}

var groundedTemplates = map[Persona]string{
	ProductOwner: `You are a product assistant answering for a product owner.
Answer the question using ONLY the provided context. Be precise and factual,
and quote game mechanics exactly as documented. If the context does not contain
the answer, say so.`,
	Marketing: `You are a product assistant answering for a marketing manager.
Answer the question using ONLY the provided context. Highlight the features and
player benefits the documentation describes, in an engaging tone. If the
context does not contain the answer, say so.`,
}

var shortTemplates = map[Persona]string{
	ProductOwner: "You are a precise, data-focused assistant for a gaming platform.",
	Marketing:    "You are an upbeat, benefit-focused assistant for a gaming platform.",
}

// RewritePrompt returns the system prompt for restyling an existing answer.
func RewritePrompt(p Persona) string {
	return rewriteTemplates[Normalize(string(p))]
}

// GroundedPrompt returns the system prompt for answering from retrieved
// context in the persona's voice.
func GroundedPrompt(p Persona) string {
	return groundedTemplates[Normalize(string(p))]
}

// ShortPrompt returns the one-line persona preamble for direct completions.
func ShortPrompt(p Persona) string {
	return shortTemplates[Normalize(string(p))]
}

// String implements fmt.Stringer.
func (p Persona) String() string { return string(p) }

var _ fmt.Stringer = Persona("")
