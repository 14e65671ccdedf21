package summarize

import "strings"

// abbreviations that a sentence splitter must not break on.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"e.g": true, "i.e": true, "etc": true, "vs": true, "cf": true,
	"fig": true, "no": true, "st": true, "jr": true, "sr": true,
}

// splitSentences splits text on sentence terminators, keeping abbreviations
// intact and dropping fragments too short to be informative.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)
	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		// Very short fragments are headings or list crumbs, not sentences.
		if len(s) >= 25 {
			out = append(out, s)
		}
	}
	for i, r := range runes {
		b.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			if r == '\n' {
				flush()
			}
			continue
		}
		if r == '.' && endsWithAbbreviation(b.String()) {
			continue
		}
		// Terminator must be followed by whitespace (or end of text) to count.
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '\t' {
			continue
		}
		flush()
	}
	flush()
	return out
}

func endsWithAbbreviation(s string) bool {
	s = strings.TrimSuffix(s, ".")
	i := strings.LastIndexAny(s, " \n\t")
	word := strings.ToLower(s[i+1:])
	return abbreviations[word] || len(word) == 1
}

// stopwords excluded from query and sentence term vectors.
var stopwords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true,
	"and": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"for": true, "by": true, "with": true, "as": true, "from": true,
	"or": true, "that": true, "this": true, "it": true, "be": true,
	"are": true, "was": true, "were": true, "has": true, "had": true,
	"have": true, "what": true, "how": true, "why": true, "when": true,
	"who": true, "does": true, "do": true, "can": true, "its": true,
}

// tokenize lowercases, strips non-alphanumerics, and drops stopwords and
// very short tokens.
func tokenize(s string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		w := b.String()
		b.Reset()
		if len(w) > 2 && !stopwords[w] {
			out = append(out, w)
		}
	}
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
