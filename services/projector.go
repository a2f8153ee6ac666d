package services

import (
	"sort"

	"auction-scraper/models"
)

const maxExtensionLen = 255

// defaultDestinations maps each destination collection to the extension
// fields it recognizes on top of the shared standard set. The registry is
// data, not code: adding a destination is one entry here.
var defaultDestinations = map[string][]string{
	"veiculos":             {"vehicle_type"},
	"imoveis":              {"property_type"},
	"animais":              {"animal_type"},
	"tecnologia":           {"multiplecategory", "tech_type"},
	"bens_consumo":         {"consumption_goods_type"},
	"partes_pecas":         {"parts_type"},
	"nichados":             {"specialized_type"},
	"eletrodomesticos":     {"appliance_type"},
	"materiais_construcao": {"construction_material_type"},
}

// standardFields are the keys every projected record shares regardless of
// destination.
var standardFields = []string{
	"source", "external_id", "title", "normalized_title",
	"description", "description_preview",
	"value", "value_text",
	"auction_round", "discount_percentage", "first_round_value", "first_round_date",
	"auction_date", "auction_type", "auction_name", "store_name", "lot_number",
	"city", "state", "address",
	"has_bid", "link", "metadata", "is_active", "last_scraped_at",
}

// extensionFieldNames returns every registered extension field name once, in
// a stable order. The assembler uses it to know which raw keys to carry.
func extensionFieldNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, fields := range defaultDestinations {
		for _, f := range fields {
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				names = append(names, f)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Projector narrows canonical records to the field set valid for one
// destination collection: the standard fields plus the destination's
// registered extensions. Foreign fields are dropped silently.
type Projector struct {
	destinations map[string][]string
}

// NewProjector returns a Projector with the default destination registry.
func NewProjector() *Projector {
	dests := make(map[string][]string, len(defaultDestinations))
	for name, fields := range defaultDestinations {
		dests[name] = append([]string(nil), fields...)
	}
	return &Projector{destinations: dests}
}

// RegisterDestination installs or replaces the extension fields for a
// destination name.
func (p *Projector) RegisterDestination(name string, fields ...string) {
	p.destinations[name] = append([]string(nil), fields...)
}

// Project produces the request-ready row for one record and destination.
// Standard fields are always present (explicit nulls, never omitted);
// extension fields are resolved from the record first, then from its metadata
// bag, and included only when they resolve to something.
func (p *Projector) Project(rec *models.CanonicalRecord, destination string) map[string]any {
	row := map[string]any{
		"source":              rec.Source,
		"external_id":         rec.ExternalID,
		"title":               Truncate(rec.Title, 255),
		"normalized_title":    Truncate(rec.NormalizedTitle, 255),
		"description":         derefAny(rec.Description),
		"description_preview": truncateAny(rec.DescriptionPreview, 255),
		"value":               derefAny(rec.Value),
		"value_text":          derefAny(rec.ValueText),
		"auction_round":       derefAny(rec.AuctionRound),
		"discount_percentage": derefAny(rec.DiscountPercentage),
		"first_round_value":   derefAny(rec.FirstRoundValue),
		"first_round_date":    derefAny(rec.FirstRoundDate),
		"auction_date":        derefAny(rec.AuctionDate),
		"auction_type":        Truncate(rec.AuctionType, 100),
		"auction_name":        derefAny(rec.AuctionName),
		"store_name":          derefAny(rec.StoreName),
		"lot_number":          derefAny(rec.LotNumber),
		"city":                derefAny(rec.City),
		"state":               derefAny(rec.State),
		"address":             derefAny(rec.Address),
		"has_bid":             rec.HasBid,
		"link":                derefAny(rec.Link),
		"metadata":            rec.Metadata,
		"is_active":           rec.IsActive,
		"last_scraped_at":     rec.LastScrapedAt,
	}

	for _, field := range p.destinations[destination] {
		if v := resolveExtension(rec, field); v != nil {
			row[field] = v
		}
	}
	return row
}

// ProjectBatch projects every record and pads the batch to a uniform column
// set: the union of keys actually populated across the batch, each missing
// one filled with an explicit null. The transport layer never sees
// heterogeneous row shapes within one request.
func (p *Projector) ProjectBatch(recs []*models.CanonicalRecord, destination string) []map[string]any {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, p.Project(rec, destination))
	}

	keys := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			keys[k] = struct{}{}
		}
	}
	for _, row := range rows {
		for k := range keys {
			if _, ok := row[k]; !ok {
				row[k] = nil
			}
		}
	}
	return rows
}

// resolveExtension looks an extension field up on the record, falling back to
// the same-named metadata key. String values are length-capped; list values
// (multiplecategory) pass through.
func resolveExtension(rec *models.CanonicalRecord, field string) any {
	v, ok := rec.Extensions[field]
	if !ok || v == nil {
		v, ok = rec.Metadata[field]
		if !ok || v == nil {
			return nil
		}
	}
	if s, isStr := v.(string); isStr {
		if s == "" {
			return nil
		}
		return Truncate(s, maxExtensionLen)
	}
	return v
}

func derefAny[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func truncateAny(s string, max int) any {
	if s == "" {
		return nil
	}
	return Truncate(s, max)
}
