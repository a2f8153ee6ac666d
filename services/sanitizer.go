package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// brTagRegexp matches line-break tags, which become newlines
	brTagRegexp = regexp.MustCompile(`(?i)<br\s*/?>`)
	// pOpenRegexp / pCloseRegexp preserve paragraph boundaries while stripping
	pOpenRegexp  = regexp.MustCompile(`(?i)<p>`)
	pCloseRegexp = regexp.MustCompile(`(?i)</p>`)
	// tagRegexp removes every remaining tag without trace
	tagRegexp = regexp.MustCompile(`<[^>]+>`)

	numEntityRegexp = regexp.MustCompile(`&#\d+;`)

	urlRegexp   = regexp.MustCompile(`https?://\S+`)
	emailRegexp = regexp.MustCompile(`\S+@\S+`)
	// phoneRegexp matches Brazilian-style numbers: (11) 98765-4321
	phoneRegexp       = regexp.MustCompile(`\(\d{2}\)\s*\d{4,5}-?\d{4}`)
	boilerplateRegexp = regexp.MustCompile(`(?i)Exibindo \d+ de \d+ itens`)

	multiNewlineRegexp = regexp.MustCompile(`\n\s*\n\s*\n+`)
	multiSpaceRegexp   = regexp.MustCompile(` {2,}`)
	whitespaceRegexp   = regexp.MustCompile(`\s+`)

	// roundPhraseRegexp matches "50% abaixo na 2ª praça" style discount phrases
	roundPhraseRegexp = regexp.MustCompile(`(?i)\d+%\s*(?:abaixo|desconto|off)?\s*na\s*\d+[ªº]\s*pra[çc]a`)
	// bareRoundRegexp matches a bare "2ª praça"
	bareRoundRegexp = regexp.MustCompile(`(?i)\d+[ªº]\s*pra[çc]a`)

	searchPunctRegexp = regexp.MustCompile(`[^\w\s]`)
)

// lowercaseWords are Portuguese prepositions, articles and conjunctions that
// never get an initial capital in Title Case (except as the first word).
var lowercaseWords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "e": {}, "em": {},
	"com": {}, "para": {}, "por": {}, "a": {}, "o": {}, "à": {}, "ao": {},
	"no": {}, "na": {}, "um": {}, "uma": {},
}

// SanitizeOptions controls the optional passes of Sanitize.
type SanitizeOptions struct {
	// RemoveRoundInfo strips "N% abaixo na 2ª praça" phrases. Titles want
	// this (the value lives in a structured field); descriptions keep the
	// prose copy as an audit trail.
	RemoveRoundInfo bool
	// MaxLen caps the final length in runes; 0 means no cap. Overflow is
	// truncated to MaxLen-3 runes plus an ellipsis marker.
	MaxLen int
}

// Sanitize is the shared text-cleaning pass: HTML stripping with paragraph
// semantics, entity decoding, contact-info removal, boilerplate removal and
// whitespace collapsing. It is a pure function of its inputs.
func Sanitize(text string, opts SanitizeOptions) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	s = stripHTML(s)
	s = decodeEntities(s)

	if opts.RemoveRoundInfo {
		s = roundPhraseRegexp.ReplaceAllString(s, "")
	}

	s = multiNewlineRegexp.ReplaceAllString(s, "\n\n")
	s = multiSpaceRegexp.ReplaceAllString(s, " ")

	// Drop empty lines left behind by tag stripping.
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	s = strings.Join(kept, "\n")

	s = boilerplateRegexp.ReplaceAllString(s, "")
	s = urlRegexp.ReplaceAllString(s, "")
	s = emailRegexp.ReplaceAllString(s, "")
	s = phoneRegexp.ReplaceAllString(s, "")

	s = strings.TrimSpace(whitespaceRegexp.ReplaceAllString(s, " "))

	if opts.MaxLen > 0 {
		s = Truncate(s, opts.MaxLen)
	}
	return s
}

// stripHTML removes tags while keeping line semantics: <br> becomes a
// newline, <p> a blank-line separator, </p> a newline. Everything else is
// removed without trace.
func stripHTML(s string) string {
	s = brTagRegexp.ReplaceAllString(s, "\n")
	s = pOpenRegexp.ReplaceAllString(s, "\n\n")
	s = pCloseRegexp.ReplaceAllString(s, "\n")
	return tagRegexp.ReplaceAllString(s, "")
}

// decodeEntities handles the five common HTML entities and drops numeric
// character references.
func decodeEntities(s string) string {
	r := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
	s = r.Replace(s)
	return numEntityRegexp.ReplaceAllString(s, "")
}

// SmartTitleCase applies display formatting: the first word is always
// capitalized; later words keep short all-uppercase tokens verbatim
// (acronyms), lowercase the closed preposition/article set, and otherwise get
// an initial capital. Re-applying it to already Title-Cased text is a no-op
// for non-acronym words.
func SmartTitleCase(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	result := make([]string, 0, len(words))
	result = append(result, capitalizeWord(words[0]))

	for _, word := range words[1:] {
		lower := strings.ToLower(word)
		switch {
		case isAllUpper(word) && len([]rune(word)) <= 5:
			result = append(result, word)
		case isLowercaseWord(lower):
			result = append(result, lower)
		default:
			result = append(result, capitalizeWord(word))
		}
	}
	return strings.Join(result, " ")
}

// NormalizeForSearch derives the search key for a display string: lowercase,
// accents folded to their base letters, punctuation stripped, whitespace
// collapsed. Used only for the normalized_title field, never for display.
func NormalizeForSearch(text string) string {
	s := strings.ToLower(text)
	s = foldAccents(s)
	s = searchPunctRegexp.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(s, " "))
}

// foldAccents decomposes accented Latin characters and drops the combining
// marks: "maciça" → "macica".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Truncate caps s at max runes, marking overflow with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func capitalizeWord(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

func isAllUpper(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func isLowercaseWord(w string) bool {
	_, ok := lowercaseWords[w]
	return ok
}
