package services

import (
	"regexp"
	"strings"

	"auction-scraper/models"
)

// Sentinel display strings for records whose title/description cannot be
// recovered. Records are never emitted with an empty title.
const (
	NoTitle       = "Sem Título"
	NoDescription = "Sem Descrição"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
)

var (
	// lotPrefixRegexp matches a leading "LOTE 12 -" marker
	lotPrefixRegexp = regexp.MustCompile(`(?i)^LOTE\s+\d+\s*[-:–—]?\s*`)
	// currencyRegexp matches amounts embedded in titles, e.g. "R$ 3.500,00"
	currencyRegexp = regexp.MustCompile(`R\$\s*[\d.,]+`)
	// plateRegexp matches "Placa FINAL 3 (SP)" markers
	plateRegexp = regexp.MustCompile(`(?i)\s*,?\s*Placa\s+FINAL\s+\d+\s*\([A-Z]{2}\)\s*,?`)
	// tripletRegexp matches three bare integers in a row — visit/bid counters
	// accidentally concatenated into display titles
	tripletRegexp = regexp.MustCompile(`\b\d+\s+\d+\s+\d+\b`)
	// leadingZeroRegexp strips zero-padding from standalone 1–2 digit numbers
	leadingZeroRegexp = regexp.MustCompile(`\b0+(\d{1,2})\b`)

	// slug suffixes: a lot code like "-j119233" or a bare long numeric code
	slugLotCodeRegexp  = regexp.MustCompile(`(?i)-[a-z]\d+$`)
	slugLongCodeRegexp = regexp.MustCompile(`-\d{5,}$`)
)

// TitleExtractor derives a clean display title from one raw listing. Sources
// whose raw titles are polluted with auction metadata get their own strategy.
type TitleExtractor interface {
	ExtractTitle(raw models.RawListing) string
}

// ExtractorRegistry maps source identifiers to title strategies, with a
// default fallback for unregistered sources.
type ExtractorRegistry struct {
	bySource map[string]TitleExtractor
	fallback TitleExtractor
}

// NewExtractorRegistry returns the registry with the known source strategies
// installed. MegaLeilões titles arrive pre-polluted with bid counts and price
// strings, so its titles are reconstructed from the external id slug instead.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		bySource: map[string]TitleExtractor{
			"megaleiloes": &SlugTitleExtractor{Prefix: "megaleiloes_"},
		},
		fallback: &DefaultTitleExtractor{},
	}
}

// Register installs or replaces the strategy for a source identifier.
func (r *ExtractorRegistry) Register(source string, e TitleExtractor) {
	r.bySource[strings.ToLower(source)] = e
}

// ExtractTitle dispatches to the strategy registered for the listing's
// source, falling back to the default cleaner.
func (r *ExtractorRegistry) ExtractTitle(raw models.RawListing) string {
	source := strings.ToLower(raw.Str("source"))
	if e, ok := r.bySource[source]; ok {
		return e.ExtractTitle(raw)
	}
	return r.fallback.ExtractTitle(raw)
}

// SlugTitleExtractor reconstructs the title from a slug-like external id:
// "megaleiloes_sofa-em-estrutura-macica-j119233" → "sofa em estrutura macica".
type SlugTitleExtractor struct {
	// Prefix is the source-name prefix stripped from the external id.
	Prefix string
}

func (e *SlugTitleExtractor) ExtractTitle(raw models.RawListing) string {
	slug := raw.Str("external_id")
	if slug == "" {
		return NoTitle
	}

	clean := strings.TrimPrefix(slug, e.Prefix)
	clean = slugLotCodeRegexp.ReplaceAllString(clean, "")
	clean = slugLongCodeRegexp.ReplaceAllString(clean, "")
	clean = strings.NewReplacer("-", " ", "_", " ").Replace(clean)
	clean = searchPunctRegexp.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(whitespaceRegexp.ReplaceAllString(clean, " "))
	clean = Truncate(clean, maxTitleLen)

	if clean == "" {
		return NoTitle
	}
	return clean
}

// DefaultTitleExtractor deep-cleans the raw title string, removing auction
// noise that belongs in structured fields: lot markers, currency amounts,
// round/discount phrases, plate markers and counter triplets.
type DefaultTitleExtractor struct{}

func (e *DefaultTitleExtractor) ExtractTitle(raw models.RawListing) string {
	title := strings.TrimSpace(raw.Str("title"))
	if title == "" {
		return NoTitle
	}

	clean := lotPrefixRegexp.ReplaceAllString(title, "")
	clean = tagRegexp.ReplaceAllString(clean, "")
	clean = decodeEntities(clean)

	// Round/discount phrasing is stripped from titles only — the structured
	// auction_round/discount_percentage fields already carry it, and the
	// description keeps the prose copy.
	clean = roundPhraseRegexp.ReplaceAllString(clean, "")
	clean = bareRoundRegexp.ReplaceAllString(clean, "")

	clean = strings.TrimSpace(strings.TrimRight(clean, ","))
	clean = plateRegexp.ReplaceAllString(clean, "")

	clean = strings.ReplaceAll(clean, "_", " ")
	clean = whitespaceRegexp.ReplaceAllString(clean, " ")

	clean = leadingZeroRegexp.ReplaceAllString(clean, "$1")
	clean = currencyRegexp.ReplaceAllString(clean, "")
	clean = tripletRegexp.ReplaceAllString(clean, "")

	clean = strings.TrimSpace(whitespaceRegexp.ReplaceAllString(clean, " "))
	clean = Truncate(clean, maxTitleLen)

	if clean == "" {
		return NoTitle
	}
	return clean
}

// ExtractDescription returns the sanitized long-form description, or nil when
// nothing usable remains. Round/discount phrasing is deliberately kept here:
// the description is the audit trail for the structured round fields.
func ExtractDescription(raw models.RawListing) *string {
	desc := strings.TrimSpace(raw.Str("description"))
	if len([]rune(desc)) < 5 {
		return nil
	}

	clean := Sanitize(desc, SanitizeOptions{MaxLen: maxDescriptionLen})
	if clean == "" {
		return nil
	}
	return &clean
}
