package services

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"auction-scraper/models"
)

func sampleRecord() *models.CanonicalRecord {
	value := 2500.0
	city := "São Paulo"
	state := "SP"
	return &models.CanonicalRecord{
		Source:             "superbid",
		ExternalID:         "superbid_1",
		Title:              "Honda Civic 2020",
		NormalizedTitle:    "honda civic 2020",
		DescriptionPreview: "Honda Civic 2020",
		Value:              &value,
		AuctionType:        "Leilão",
		City:               &city,
		State:              &state,
		HasBid:             true,
		IsActive:           true,
		LastScrapedAt:      "2026-08-30T12:00:00Z",
		Extensions:         map[string]any{"vehicle_type": "carro"},
		Metadata:           map[string]any{"raw_category": "Carros"},
	}
}

func TestProjectAlwaysEmitsStandardFields(t *testing.T) {
	p := NewProjector()
	row := p.Project(sampleRecord(), "imoveis")

	for _, field := range standardFields {
		if _, ok := row[field]; !ok {
			t.Errorf("standard field %q missing from row", field)
		}
	}
	// Absent optionals travel as explicit nulls, not missing keys.
	if v, ok := row["description"]; !ok || v != nil {
		t.Errorf("description = %v, present=%v; want explicit nil", v, ok)
	}
	if v, ok := row["auction_date"]; !ok || v != nil {
		t.Errorf("auction_date = %v, present=%v; want explicit nil", v, ok)
	}
}

func TestProjectExtensionScoping(t *testing.T) {
	p := NewProjector()
	rec := sampleRecord()

	veiculos := p.Project(rec, "veiculos")
	if veiculos["vehicle_type"] != "carro" {
		t.Errorf("vehicle_type = %v; want carro", veiculos["vehicle_type"])
	}

	imoveis := p.Project(rec, "imoveis")
	if _, ok := imoveis["vehicle_type"]; ok {
		t.Error("vehicle_type leaked into imoveis projection")
	}
	if _, ok := imoveis["property_type"]; ok {
		t.Error("unpopulated extension must be omitted, not null")
	}
}

func TestProjectStandardFieldsEqualAcrossDestinations(t *testing.T) {
	p := NewProjector()
	rec := sampleRecord()

	a := p.Project(rec, "veiculos")
	b := p.Project(rec, "imoveis")

	for _, field := range standardFields {
		if !reflect.DeepEqual(a[field], b[field]) {
			t.Errorf("field %q differs across destinations: %v vs %v", field, a[field], b[field])
		}
	}
}

func TestProjectExtensionMetadataFallback(t *testing.T) {
	p := NewProjector()
	rec := sampleRecord()
	rec.Extensions = nil
	rec.Metadata["property_type"] = "apartamento"

	row := p.Project(rec, "imoveis")
	if row["property_type"] != "apartamento" {
		t.Errorf("metadata fallback failed: %v", row["property_type"])
	}
}

func TestProjectExtensionListPassthrough(t *testing.T) {
	p := NewProjector()
	rec := sampleRecord()
	rec.Extensions = map[string]any{"multiplecategory": []string{"informatica", "celulares"}}

	row := p.Project(rec, "tecnologia")
	got, ok := row["multiplecategory"].([]string)
	if !ok || len(got) != 2 {
		t.Errorf("list extension mangled: %v", row["multiplecategory"])
	}
}

func TestProjectCapsOversizeText(t *testing.T) {
	p := NewProjector()
	rec := sampleRecord()
	rec.Title = strings.Repeat("x", 400)
	rec.Extensions = map[string]any{"vehicle_type": strings.Repeat("y", 400)}

	row := p.Project(rec, "veiculos")
	if title := row["title"].(string); len([]rune(title)) != 255 {
		t.Errorf("title not capped: %d runes", len([]rune(title)))
	}
	if ext := row["vehicle_type"].(string); len([]rune(ext)) != 255 {
		t.Errorf("extension not capped: %d runes", len([]rune(ext)))
	}
}

func TestProjectBatchUniformKeys(t *testing.T) {
	p := NewProjector()

	withExt := sampleRecord()
	withoutExt := sampleRecord()
	withoutExt.ExternalID = "superbid_2"
	withoutExt.Extensions = nil

	rows := p.ProjectBatch([]*models.CanonicalRecord{withExt, withoutExt}, "veiculos")
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d", len(rows))
	}

	keysOf := func(row map[string]any) []string {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}

	if !reflect.DeepEqual(keysOf(rows[0]), keysOf(rows[1])) {
		t.Errorf("batch rows have different key sets:\n%v\n%v", keysOf(rows[0]), keysOf(rows[1]))
	}
	if v, ok := rows[1]["vehicle_type"]; !ok || v != nil {
		t.Errorf("padded key = %v, present=%v; want explicit nil", v, ok)
	}
}

func TestProjectBatchEmpty(t *testing.T) {
	p := NewProjector()
	if rows := p.ProjectBatch(nil, "veiculos"); rows != nil {
		t.Errorf("empty batch = %v; want nil", rows)
	}
}

func TestRegisterDestination(t *testing.T) {
	p := NewProjector()
	p.RegisterDestination("embarcacoes", "vessel_type")

	rec := sampleRecord()
	rec.Extensions = map[string]any{"vessel_type": "lancha"}

	row := p.Project(rec, "embarcacoes")
	if row["vessel_type"] != "lancha" {
		t.Errorf("custom destination extension = %v", row["vessel_type"])
	}
}

func TestExtensionFieldNamesStable(t *testing.T) {
	a := extensionFieldNames()
	b := extensionFieldNames()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("extensionFieldNames not stable: %v vs %v", a, b)
	}
	if !sort.StringsAreSorted(a) {
		t.Errorf("extensionFieldNames not sorted: %v", a)
	}
}
