// Package parser implements the request parser (C1): a deliberately
// imprecise, deterministic keyword/URL heuristic turning free-form message
// text into a (skill-id, arguments) tuple. Rule order is load-bearing; see
// spec.md §4.1.
package parser

import (
	"regexp"
	"strings"
)

// Parsed is the (skill-id, args) tuple the parser produces.
type Parsed struct {
	SkillID string
	Args    map[string]string
}

var (
	aiCues = []string{"analyze", "analysis", "summarize", "summary", "gemini", "ai "}

	urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

	pdfPreamble  = regexp.MustCompile(`(?i)^\s*convert to pdf:\s*`)
	htmlPreamble = regexp.MustCompile(`(?i)^\s*convert to html:\s*`)
)

// Parse classifies free-form text into a skill-id and its arguments,
// applying the rules of §4.1 in order; the first match wins.
func Parse(text string) Parsed {
	lower := strings.ToLower(text)

	if cue, idx := firstCue(lower, aiCues); idx >= 0 {
		content := afterCue(text, cue, idx)
		return Parsed{SkillID: "ai-analysis", Args: map[string]string{"content": content}}
	}

	startsWithURL := urlPattern.FindStringIndex(strings.TrimSpace(text))
	beginsWithHTTP := startsWithURL != nil && startsWithURL[0] == 0

	if strings.Contains(lower, "pdf") && !beginsWithHTTP {
		body := pdfPreamble.ReplaceAllString(text, "")
		return Parsed{SkillID: "markdown-to-pdf", Args: map[string]string{"content": body}}
	}

	if strings.Contains(lower, "html") && !beginsWithHTTP {
		body := htmlPreamble.ReplaceAllString(text, "")
		return Parsed{SkillID: "markdown-to-html", Args: map[string]string{"content": body}}
	}

	if loc := urlPattern.FindString(text); loc != "" {
		return Parsed{SkillID: "screenshot", Args: map[string]string{"url": loc}}
	}

	return Parsed{SkillID: "markdown-to-html", Args: map[string]string{"content": text}}
}

// firstCue returns the first matching cue (in cues order of appearance in
// text) and its byte index, or ("", -1) if none match.
func firstCue(lower string, cues []string) (string, int) {
	bestIdx := -1
	bestCue := ""
	for _, cue := range cues {
		if idx := strings.Index(lower, cue); idx >= 0 {
			if bestIdx == -1 || idx < bestIdx {
				bestIdx = idx
				bestCue = cue
			}
		}
	}
	return bestCue, bestIdx
}

// afterCue extracts the portion of the original text after the first ':'
// that follows the matched cue, or the whole text if no ':' follows.
func afterCue(text, cue string, idx int) string {
	rest := text[idx+len(cue):]
	if colon := strings.Index(rest, ":"); colon >= 0 {
		return strings.TrimSpace(rest[colon+1:])
	}
	return text
}
