package models

// RawListing holds one unprocessed listing exactly as it came off a source
// API. No key is guaranteed present and no value is guaranteed to have the
// right type — everything downstream must treat it as untrusted.
type RawListing map[string]any

// Str returns the string value at key, or "" when absent or not a string.
func (r RawListing) Str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Map returns the map value at key, or nil when absent or not a map.
func (r RawListing) Map(key string) map[string]any {
	if v, ok := r[key].(map[string]any); ok {
		return v
	}
	return nil
}

// CanonicalRecord is the validated, fixed-schema output of the normalization
// pipeline for one listing. Nullable fields are pointers so serialization
// emits explicit nulls rather than omitting keys. A record is built once and
// never mutated afterwards.
type CanonicalRecord struct {
	Source     string `json:"source" validate:"required"`
	ExternalID string `json:"external_id" validate:"required"`

	Title              string  `json:"title"`
	NormalizedTitle    string  `json:"normalized_title"`
	Description        *string `json:"description"`
	DescriptionPreview string  `json:"description_preview"`

	Value     *float64 `json:"value"`
	ValueText *string  `json:"value_text"`

	// AuctionRound follows the simplified schema: nil means first round,
	// 2 means second round. No other value is stored.
	AuctionRound       *int     `json:"auction_round"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	FirstRoundValue    *float64 `json:"first_round_value"`
	FirstRoundDate     *string  `json:"first_round_date"`

	AuctionDate *string `json:"auction_date"`
	AuctionType string  `json:"auction_type"`
	AuctionName *string `json:"auction_name"`
	StoreName   *string `json:"store_name"`
	LotNumber   *string `json:"lot_number"`

	City    *string `json:"city"`
	State   *string `json:"state"`
	Address *string `json:"address"`

	HasBid bool    `json:"has_bid"`
	Link   *string `json:"link"`

	// Extensions carries destination-specific type fields (vehicle_type,
	// property_type, ...) copied verbatim from the raw listing. The projector
	// decides which of them, if any, survive for a given destination.
	Extensions map[string]any `json:"extensions,omitempty"`

	Metadata      map[string]any `json:"metadata"`
	IsActive      bool           `json:"is_active"`
	LastScrapedAt string         `json:"last_scraped_at"`
}

// UpsertStats aggregates the outcome of one sink upload.
type UpsertStats struct {
	Inserted int
	Updated  int
	Errors   int
}

// Add merges another stats value into this one.
func (s *UpsertStats) Add(o UpsertStats) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Errors += o.Errors
}

// SnapshotStats aggregates the outcome of a bid-history snapshot upload.
type SnapshotStats struct {
	Saved  int
	Errors int
}

// RunReport holds the computed summary over one scrape run's canonical set.
type RunReport struct {
	TotalRecords      int
	WithBids          int
	SecondRound       int
	AverageValue      float64
	MinValue          float64
	MaxValue          float64
	MostValuable      *CanonicalRecord
	RecordsByCategory map[string]int
	RecordsByState    map[string]int
}
