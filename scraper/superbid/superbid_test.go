package superbid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-scraper/config"
	"auction-scraper/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		PageSize:           50,
		MaxConsecutiveErrs: 3,
		MaxRetries:         1,
		RequestsPerSecond:  1000,
		SectionPauseMs:     0,
	}
}

func testScraper(t *testing.T, serverURL string, sections []Section) *Scraper {
	t.Helper()
	s := New(testConfig(), utils.NewLogger(), utils.NewSeenSet())
	s.BaseURL = serverURL + "/"
	s.SiteURL = serverURL
	s.Sections = sections
	return s
}

func offerJSON(id int, title string, price float64, store string) map[string]any {
	return map[string]any{
		"id":             float64(id),
		"price":          price,
		"priceFormatted": fmt.Sprintf("R$ %.2f", price),
		"hasBids":        true,
		"lotNumber":      "12",
		"product": map[string]any{
			"shortDesc":           title,
			"detailedDescription": "Item em ótimo estado de conservação",
			"location":            map[string]any{"city": "São Paulo - SP"},
		},
		"store": map[string]any{"name": store},
		"auction": map[string]any{
			"desc":    "Leilão de Teste",
			"endDate": "2026-09-15 14:00:00",
			"address": "Av. Paulista, 1000",
		},
	}
}

func servePages(t *testing.T, pages map[int][]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		var n int
		fmt.Sscanf(page, "%d", &n)
		offers := pages[n]
		if offers == nil {
			offers = []map[string]any{}
		}
		json.NewEncoder(w).Encode(map[string]any{"offers": offers})
	}))
}

func TestScrapePaginatesUntilEmptyPage(t *testing.T) {
	server := servePages(t, map[int][]map[string]any{
		1: {offerJSON(101, "Honda Civic", 2500, "Loja Real")},
		2: {offerJSON(102, "Fiat Uno", 1800, "Loja Real")},
	})
	defer server.Close()

	sec := Section{Slug: "carros-motos/carros", Category: "Carros",
		Destination: "veiculos", TypeField: "vehicle_type", TypeValue: "Carros"}
	s := testScraper(t, server.URL, []Section{sec})

	items, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d; want 2", len(items))
	}
	if s.Stats.TotalScraped != 2 || s.Stats.ByCategory["Carros"] != 2 {
		t.Errorf("stats = %+v", s.Stats)
	}

	raw := items[0]
	if raw.Str("external_id") != "superbid_101" {
		t.Errorf("external_id = %q", raw.Str("external_id"))
	}
	if raw.Str("title") != "Honda Civic" {
		t.Errorf("title = %q", raw.Str("title"))
	}
	if raw.Str("city") != "São Paulo" || raw.Str("state") != "SP" {
		t.Errorf("location = %q/%q", raw.Str("city"), raw.Str("state"))
	}
	if raw.Str("auction_date") != "2026-09-15T14:00:00-03:00" {
		t.Errorf("auction_date = %q", raw.Str("auction_date"))
	}
	if raw.Str("destination") != "veiculos" || raw.Str("vehicle_type") != "Carros" {
		t.Errorf("destination fields = %q/%q", raw.Str("destination"), raw.Str("vehicle_type"))
	}
	if raw.Str("link") != server.URL+"/oferta/101" {
		t.Errorf("link = %q", raw.Str("link"))
	}
}

func TestScrapeDeduplicatesAcrossPages(t *testing.T) {
	dup := offerJSON(101, "Honda Civic", 2500, "Loja Real")
	server := servePages(t, map[int][]map[string]any{
		1: {dup},
		2: {dup},
		3: {offerJSON(103, "Gol G5", 900, "Loja Real")},
	})
	defer server.Close()

	sec := Section{Slug: "carros-motos/carros", Category: "Carros", Destination: "veiculos"}
	s := testScraper(t, server.URL, []Section{sec})

	items, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d; want 2 unique", len(items))
	}
	if s.Stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d; want 1", s.Stats.Duplicates)
	}
}

func TestScrapeGivesUpAfterConsecutiveErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sec := Section{Slug: "carros-motos/carros", Category: "Carros", Destination: "veiculos"}
	s := testScraper(t, server.URL, []Section{sec})

	items, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape must absorb page failures, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d; want 0", len(items))
	}
	if s.Stats.Errors != 3 {
		t.Errorf("Errors = %d; want 3", s.Stats.Errors)
	}
	if requests != 3 {
		t.Errorf("requests = %d; want 3", requests)
	}
}

func TestScrapeRecoversAfterTransientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.WriteHeader(http.StatusBadGateway)
		case "2":
			json.NewEncoder(w).Encode(map[string]any{
				"offers": []map[string]any{offerJSON(500, "Notebook Dell", 1200, "Loja Real")},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{"offers": []map[string]any{}})
		}
	}))
	defer server.Close()

	sec := Section{Slug: "tecnologia/informatica", Category: "Informática", Destination: "tecnologia"}
	s := testScraper(t, server.URL, []Section{sec})

	items, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d; want 1", len(items))
	}
	if s.Stats.Errors != 1 {
		t.Errorf("Errors = %d; want 1", s.Stats.Errors)
	}
}

func TestParseOfferFilters(t *testing.T) {
	s := New(testConfig(), utils.NewLogger(), utils.NewSeenSet())
	sec := Section{Slug: "x", Category: "X", Destination: "veiculos"}

	if _, ok := s.parseOffer(offerJSON(1, "Lote de Teste", 500, "Demo Store SP"), sec); ok {
		t.Error("demo store offer must be filtered")
	}
	if _, ok := s.parseOffer(offerJSON(2, "Lote de Teste", 500, "Loja Testes"), sec); ok {
		t.Error("test store offer must be filtered")
	}
	if _, ok := s.parseOffer(offerJSON(3, "Placeholder", 0.5, "Loja Real"), sec); ok {
		t.Error("sub-R$1 offer must be filtered")
	}
	if _, ok := s.parseOffer(map[string]any{"price": 100.0}, sec); ok {
		t.Error("offer without id must be dropped")
	}
	if _, ok := s.parseOffer(offerJSON(4, "Item Real", 100, "Loja Real"), sec); !ok {
		t.Error("legitimate offer must pass")
	}
}

func TestParseOfferTitleFallback(t *testing.T) {
	s := New(testConfig(), utils.NewLogger(), utils.NewSeenSet())
	sec := Section{Slug: "x", Category: "X", Destination: "veiculos"}

	offer := offerJSON(10, "", 100, "Loja Real")
	offer["offerDescription"] = map[string]any{"offerDescription": "Título alternativo"}

	raw, ok := s.parseOffer(offer, sec)
	if !ok {
		t.Fatal("offer dropped")
	}
	if raw.Str("title") != "Título alternativo" {
		t.Errorf("title = %q; want fallback", raw.Str("title"))
	}
}

func TestParseOfferYearAndQuantity(t *testing.T) {
	s := New(testConfig(), utils.NewLogger(), utils.NewSeenSet())
	sec := Section{Slug: "x", Category: "X", Destination: "veiculos"}

	offer := offerJSON(11, "Caminhão Volvo", 80000, "Loja Real")
	offer["quantityInLot"] = float64(3)
	product := offer["product"].(map[string]any)
	product["template"] = map[string]any{
		"groups": []any{
			map[string]any{
				"properties": []any{
					map[string]any{"id": "anofabricacao", "value": "2018"},
				},
			},
		},
	}

	raw, ok := s.parseOffer(offer, sec)
	if !ok {
		t.Fatal("offer dropped")
	}
	if raw["year"] != 2018 {
		t.Errorf("year = %v; want 2018", raw["year"])
	}
	if raw["quantity"] != float64(3) {
		t.Errorf("quantity = %v; want 3", raw["quantity"])
	}
}

func TestParseLocationFallbacks(t *testing.T) {
	s := New(testConfig(), utils.NewLogger(), utils.NewSeenSet())

	// Seller city carries the UF when the product location has none.
	offer := map[string]any{
		"seller": map[string]any{"city": "Belo Horizonte - MG"},
	}
	product := map[string]any{
		"location": map[string]any{"city": "Contagem"},
	}
	city, state := s.parseLocation(offer, product)
	if city != "Contagem" || state != "MG" {
		t.Errorf("location = %q/%q; want Contagem/MG", city, state)
	}

	// Spelled-out state name resolves through the lookup table.
	product = map[string]any{
		"location": map[string]any{"city": "Campinas", "state": "São Paulo"},
	}
	city, state = s.parseLocation(map[string]any{}, product)
	if city != "Campinas" || state != "SP" {
		t.Errorf("location = %q/%q; want Campinas/SP", city, state)
	}
}

func TestIsoDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-09-15 14:00:00", "2026-09-15T14:00:00-03:00"},
		{"not a date", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := isoDate(tt.in); got != tt.want {
			t.Errorf("isoDate(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultSectionsCoverEveryDestination(t *testing.T) {
	want := []string{
		"veiculos", "imoveis", "animais", "tecnologia", "bens_consumo",
		"partes_pecas", "nichados", "eletrodomesticos", "materiais_construcao",
	}
	have := make(map[string]bool)
	for _, sec := range defaultSections {
		have[sec.Destination] = true
	}
	for _, dest := range want {
		if !have[dest] {
			t.Errorf("no section feeds destination %q", dest)
		}
	}
}
