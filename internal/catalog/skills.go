// Package catalog holds the static skill and network catalogues: the four
// skills the gateway exposes and the EVM networks it accepts payment on.
package catalog

// Skill is one unit of service the gateway exposes.
type Skill struct {
	ID                string
	Description       string
	PriceSmallestUnit int64
	InputModes        []string
	OutputModes       []string
	Tags              []string
	Examples          []string
}

// RequiresPayment reports whether a skill has a non-zero price.
func (s Skill) RequiresPayment() bool { return s.PriceSmallestUnit > 0 }

// Skills is the fixed catalogue of the four skills the gateway exposes.
// Screenshot/PDF/AI analysis are priced; markdown-to-html is free.
var Skills = []Skill{
	{
		ID:                "screenshot",
		Description:       "Capture a full-page screenshot of a URL.",
		PriceSmallestUnit: 10_000, // $0.01 at 6 decimals
		InputModes:        []string{"text/plain"},
		OutputModes:       []string{"image/png"},
		Tags:              []string{"browser", "capture"},
		Examples:          []string{"Take a screenshot of https://example.com"},
	},
	{
		ID:                "markdown-to-pdf",
		Description:       "Render markdown text to a PDF document.",
		PriceSmallestUnit: 5_000, // $0.005
		InputModes:        []string{"text/markdown"},
		OutputModes:       []string{"application/pdf"},
		Tags:              []string{"document", "conversion"},
		Examples:          []string{"Convert to PDF: # Hello world"},
	},
	{
		ID:                "markdown-to-html",
		Description:       "Render markdown text to HTML. Free.",
		PriceSmallestUnit: 0,
		InputModes:        []string{"text/markdown"},
		OutputModes:       []string{"text/html"},
		Tags:              []string{"document", "conversion"},
		Examples:          []string{"# Hello world"},
	},
	{
		ID:                "ai-analysis",
		Description:       "Summarise or analyse a passage of text with an AI model.",
		PriceSmallestUnit: 20_000, // $0.02
		InputModes:        []string{"text/plain"},
		OutputModes:       []string{"text/plain"},
		Tags:              []string{"ai", "nlp"},
		Examples:          []string{"Summarize: <long article>"},
	},
}

// ByID looks up a skill by its id; the bool reports whether it exists.
func ByID(id string) (Skill, bool) {
	for _, s := range Skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// PricedSkills returns the subset of the catalogue that requires payment.
func PricedSkills() []Skill {
	var out []Skill
	for _, s := range Skills {
		if s.RequiresPayment() {
			out = append(out, s)
		}
	}
	return out
}
