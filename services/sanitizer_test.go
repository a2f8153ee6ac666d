package services

import "testing"

func TestSanitizeStripsHTMLPreservingLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags removed", "<div>Geladeira <b>Brastemp</b></div>", "Geladeira Brastemp"},
		{"br becomes separator", "linha um<br>linha dois", "linha um linha dois"},
		{"self closing br", "linha um<br/>linha dois", "linha um linha dois"},
		{"paragraphs", "<p>um</p><p>dois</p>", "um dois"},
		{"entities decoded", "a &amp; b &lt;c&gt; &quot;d&quot;&nbsp;e", `a & b <c> "d" e`},
		{"numeric refs dropped", "caf&#233; moido", "caf moido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in, SanitizeOptions{})
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeRemovesContactInfoAndBoilerplate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url", "veja https://exemplo.com/lote agora", "veja agora"},
		{"email", "contato vendas@exemplo.com fim", "contato fim"},
		{"phone", "ligue (11) 98765-4321 hoje", "ligue hoje"},
		{"phone short", "ligue (21) 3456-7890 hoje", "ligue hoje"},
		{"boilerplate", "Sofá novo Exibindo 10 de 50 itens usado", "Sofá novo usado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in, SanitizeOptions{})
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeRoundInfoRemoval(t *testing.T) {
	in := "50% abaixo na 2ª praça promoção imperdível"

	kept := Sanitize(in, SanitizeOptions{})
	if kept != in {
		t.Errorf("round info should be kept by default: got %q", kept)
	}

	stripped := Sanitize(in, SanitizeOptions{RemoveRoundInfo: true})
	if stripped != "promoção imperdível" {
		t.Errorf("round info not stripped: got %q", stripped)
	}
}

func TestSanitizeMaxLen(t *testing.T) {
	in := "abcdefghijklmnop"

	got := Sanitize(in, SanitizeOptions{MaxLen: 10})
	if got != "abcdefg..." {
		t.Errorf("Sanitize cap = %q; want %q", got, "abcdefg...")
	}
	if Sanitize(in, SanitizeOptions{MaxLen: 16}) != in {
		t.Errorf("exact-length input must not be truncated")
	}
}

func TestTruncateRuneAware(t *testing.T) {
	// Multi-byte runes must never be split mid-sequence.
	in := "maçã maçã maçã"
	got := Truncate(in, 10)
	want := "maçã ma..."
	if got != want {
		t.Errorf("Truncate(%q, 10) = %q; want %q", in, got, want)
	}
}

func TestSmartTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sofá em estrutura maciça de veludo", "Sofá em Estrutura Maciça de Veludo"},
		{"cadeira USB nova", "Cadeira USB Nova"},
		{"de volta para casa", "De Volta para Casa"},
		{"GELADEIRA BRASTEMP DUPLEX", "Geladeira Brastemp Duplex"},
		{"tv LG 42 polegadas", "Tv LG 42 Polegadas"},
		{"", ""},
	}

	for _, tt := range tests {
		got := SmartTitleCase(tt.in)
		if got != tt.want {
			t.Errorf("SmartTitleCase(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSmartTitleCaseIdempotent(t *testing.T) {
	inputs := []string{
		"Sofá em Estrutura Maciça de Veludo",
		"Geladeira Brastemp Frost Free",
		"Terreno de 500 Metros em Campinas",
	}
	for _, in := range inputs {
		if got := SmartTitleCase(in); got != in {
			t.Errorf("SmartTitleCase(%q) = %q; want fixed point", in, got)
		}
	}
}

func TestNormalizeForSearch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sofá em Estrutura, Maciça!", "sofa em estrutura macica"},
		{"Cadeira Odontológica", "cadeira odontologica"},
		{"Ônibus Executivo", "onibus executivo"},
		{"  já   limpo  ", "ja limpo"},
		{"", ""},
	}

	for _, tt := range tests {
		got := NormalizeForSearch(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeForSearch(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
