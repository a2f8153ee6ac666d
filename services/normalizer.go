package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"auction-scraper/models"
	"auction-scraper/utils"
)

// ErrRecordRejected marks a listing dropped for missing mandatory identity
// fields. It is a filter outcome, not a pipeline failure.
var ErrRecordRejected = errors.New("record rejected: missing source or external_id")

// validStates is the closed set of 27 Brazilian federation unit codes.
var validStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// truthyTokens are the string spellings accepted as a true boolean flag.
var truthyTokens = map[string]struct{}{
	"true": {}, "1": {}, "yes": {}, "sim": {},
}

const (
	maxGenericTextLen  = 200
	maxAddressLen      = 255
	defaultAuctionType = "Leilão"
)

// NormalizeValue coerces a monetary value to a non-negative float rounded
// half away from zero to 2 decimals. Negative or unparseable input yields nil.
func NormalizeValue(v any) *float64 {
	f, ok := coerceFloat(v)
	if !ok || f < 0 {
		return nil
	}
	rounded := math.Round(f*100) / 100
	return &rounded
}

// NormalizeInt coerces a generic counter, falling back to def for absent or
// non-numeric input.
func NormalizeInt(v any, def int) int {
	n, ok := coerceInt(v)
	if !ok {
		return def
	}
	return n
}

// NormalizeNonNegativeInt coerces a "days remaining"-style counter: negatives
// clamp to 0, non-numeric input yields nil.
func NormalizeNonNegativeInt(v any) *int {
	n, ok := coerceInt(v)
	if !ok {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return &n
}

// NormalizeBool coerces a flag: native booleans pass through, numbers are
// true when positive, strings must be a known truthy token. Everything else
// is false.
func NormalizeBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(b))]
		return ok
	default:
		if f, ok := coerceFloat(v); ok {
			return f > 0
		}
		return false
	}
}

// NormalizeState validates a two-letter federation unit code against the
// closed set. Anything else normalizes to nil.
func NormalizeState(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, valid := validStates[s]; !valid {
		return nil
	}
	return &s
}

// NormalizeDate accepts only strings already carrying the ISO time designator
// and parseable as a timestamp. No free-text date parsing is attempted.
func NormalizeDate(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "T") {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05-07"} {
		if _, err := time.Parse(layout, s); err == nil {
			return &s
		}
	}
	return nil
}

// NormalizeRound collapses the auction round to the simplified schema:
// only a second round survives, everything else means first round (nil).
func NormalizeRound(v any) *int {
	n, ok := coerceInt(v)
	if !ok || n != 2 {
		return nil
	}
	return &n
}

// NormalizeText trims, Title-Cases non-numeric text and caps its length.
// Empty input yields the default, or nil when no default is given.
func NormalizeText(v any, def string) *string {
	s := strings.TrimSpace(coerceString(v))
	if s == "" {
		if def == "" {
			return nil
		}
		return &def
	}
	if !isAllDigits(s) {
		s = SmartTitleCase(s)
	}
	s = Truncate(s, maxGenericTextLen)
	return &s
}

// NormalizeCity Title-Cases the city name after stripping an embedded state
// suffix ("São Paulo / SP", "Campinas - SP").
func NormalizeCity(v any) *string {
	s := strings.TrimSpace(coerceString(v))
	if s == "" {
		return nil
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if i := strings.Index(s, "-"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return nil
	}
	s = SmartTitleCase(s)
	return &s
}

// NormalizeAddress Title-Cases and caps the address; fragments shorter than
// 3 characters are treated as absent.
func NormalizeAddress(v any) *string {
	s := strings.TrimSpace(coerceString(v))
	if len([]rune(s)) < 3 {
		return nil
	}
	s = Truncate(SmartTitleCase(s), maxAddressLen)
	return &s
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// optString passes a non-empty raw string field through untouched.
func optString(v any) *string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Assembler builds CanonicalRecords from raw listings. Every field normalizer
// it calls is total, so a malformed field degrades to null/default instead of
// aborting the record; the only rejection is the mandatory-identity check.
type Assembler struct {
	extractors *ExtractorRegistry
	validate   *validator.Validate
	logger     *utils.Logger
}

// NewAssembler creates an Assembler with the default extractor registry.
func NewAssembler(logger *utils.Logger) *Assembler {
	return &Assembler{
		extractors: NewExtractorRegistry(),
		validate:   validator.New(),
		logger:     logger,
	}
}

// metadataPassthrough is the allow-list of top-level raw fields folded into
// the metadata bag.
var metadataPassthrough = []string{
	"raw_category", "condition", "brand", "model", "year", "quantity", "unit_price",
}

// Assemble produces the canonical record for one raw listing, invoking the
// extractor and normalizers in a fixed explicit order. It returns
// ErrRecordRejected when the mandatory identity fields are missing.
func (a *Assembler) Assemble(raw models.RawListing) (*models.CanonicalRecord, error) {
	title := SmartTitleCase(a.extractors.ExtractTitle(raw))
	description := ExtractDescription(raw)

	rec := &models.CanonicalRecord{
		Source:     strings.TrimSpace(raw.Str("source")),
		ExternalID: strings.TrimSpace(raw.Str("external_id")),

		Title:              title,
		NormalizedTitle:    NormalizeForSearch(title),
		Description:        description,
		DescriptionPreview: buildPreview(description, title),

		Value:     NormalizeValue(raw["value"]),
		ValueText: optString(raw["value_text"]),

		AuctionRound:       NormalizeRound(raw["auction_round"]),
		DiscountPercentage: NormalizeValue(raw["discount_percentage"]),
		FirstRoundValue:    NormalizeValue(raw["first_round_value"]),
		FirstRoundDate:     NormalizeDate(raw["first_round_date"]),

		AuctionDate: NormalizeDate(raw["auction_date"]),
		AuctionType: *NormalizeText(raw["auction_type"], defaultAuctionType),
		AuctionName: NormalizeText(raw["auction_name"], ""),
		StoreName:   NormalizeText(raw["store_name"], ""),
		LotNumber:   NormalizeText(raw["lot_number"], ""),

		City:    NormalizeCity(raw["city"]),
		State:   NormalizeState(raw["state"]),
		Address: NormalizeAddress(raw["address"]),

		HasBid: NormalizeBool(raw["has_bid"]),
		Link:   optString(raw["link"]),

		Extensions: collectExtensions(raw),
		Metadata:   buildMetadata(raw),

		IsActive:      true,
		LastScrapedAt: time.Now().Format(time.RFC3339),
	}

	if err := a.validate.Struct(rec); err != nil {
		a.logger.Debug("[assembler] rejected listing (source=%q external_id=%q): %v",
			rec.Source, rec.ExternalID, err)
		return nil, fmt.Errorf("%w", ErrRecordRejected)
	}
	return rec, nil
}

// buildPreview derives the short display preview: the first 150 characters of
// the description when one exists, else of the title, else a sentinel.
func buildPreview(description *string, title string) string {
	if description != nil && len([]rune(*description)) > 10 {
		r := []rune(*description)
		if len(r) > 150 {
			return strings.TrimSpace(string(r[:150])) + "..."
		}
		return strings.TrimSpace(*description)
	}
	if title != "" {
		r := []rune(title)
		if len(r) > 150 {
			return string(r[:150])
		}
		return title
	}
	return NoDescription
}

func collectExtensions(raw models.RawListing) map[string]any {
	var ext map[string]any
	for _, name := range extensionFieldNames() {
		if v, ok := raw[name]; ok && v != nil {
			if ext == nil {
				ext = make(map[string]any)
			}
			ext[name] = v
		}
	}
	return ext
}

// buildMetadata copies the caller-supplied metadata bag (starting empty when
// absent or malformed) and overlays the fixed passthrough allow-list.
func buildMetadata(raw models.RawListing) map[string]any {
	metadata := make(map[string]any)
	for k, v := range raw.Map("metadata") {
		metadata[k] = v
	}
	for _, field := range metadataPassthrough {
		if v, ok := raw[field]; ok && v != nil {
			metadata[field] = v
		}
	}
	return metadata
}
