package superbid

// Section maps one site category slug to the scraped category label, the
// destination collection its records are stored in, and the value of that
// destination's extension type field.
type Section struct {
	Slug        string
	Category    string
	Destination string
	TypeField   string
	TypeValue   string
}

// defaultSections is the enumerable table of site sections the scraper
// walks, in site order. Every destination collection is represented.
var defaultSections = []Section{
	// Animais
	{"animais/bovinos", "Bovinos", "animais", "animal_type", "Bovinos"},

	// Artes e colecionismo
	{"artes-decoracao-colecionismo", "Artes e Colecionismo", "nichados", "specialized_type", "Artes e Colecionismo"},

	// Bens de consumo
	{"bolsas-canetas-joias-e-relogios/bolsas", "Bolsas", "bens_consumo", "consumption_goods_type", "Bolsas"},
	{"bolsas-canetas-joias-e-relogios/relogios", "Relógios", "bens_consumo", "consumption_goods_type", "Relógios"},
	{"oportunidades/vestuarios", "Vestuários", "bens_consumo", "consumption_goods_type", "Vestuários"},

	// Veículos
	{"caminhoes-onibus/onibus", "Ônibus", "veiculos", "vehicle_type", "Ônibus"},
	{"caminhoes-onibus/caminhoes", "Caminhões", "veiculos", "vehicle_type", "Caminhões"},
	{"caminhoes-onibus/vans", "Vans", "veiculos", "vehicle_type", "Vans"},
	{"carros-motos/carros", "Carros", "veiculos", "vehicle_type", "Carros"},
	{"carros-motos/motos", "Motos", "veiculos", "vehicle_type", "Motos"},
	{"embarcacoes-aeronaves/lanchas-e-barcos", "Lanchas e Barcos", "veiculos", "vehicle_type", "Lanchas e Barcos"},

	// Partes e peças
	{"carros-motos/partes-e-pecas-carros-e-motos", "Peças Carros/Motos", "partes_pecas", "parts_type", "Peças Carros/Motos"},
	{"partes-e-pecas", "Peças Variadas", "partes_pecas", "parts_type", "Peças Variadas"},

	// Eletrodomésticos
	{"eletrodomesticos/refrigeradores", "Refrigeradores", "eletrodomesticos", "appliance_type", "Refrigeradores"},
	{"eletrodomesticos/eletroportateis", "Eletroportáteis", "eletrodomesticos", "appliance_type", "Eletroportáteis"},

	// Imóveis
	{"imoveis/imoveis-rurais", "Imóveis Rurais", "imoveis", "property_type", "Imóveis Rurais"},
	{"imoveis/imoveis-comerciais", "Imóveis Comerciais", "imoveis", "property_type", "Imóveis Comerciais"},
	{"imoveis/imoveis-residenciais", "Imóveis Residenciais", "imoveis", "property_type", "Imóveis Residenciais"},
	{"imoveis/terrenos-e-lotes", "Terrenos e Lotes", "imoveis", "property_type", "Terrenos e Lotes"},

	// Materiais de construção
	{"materiais-para-construcao-civil/ferramentas", "Ferramentas", "materiais_construcao", "construction_material_type", "Ferramentas"},
	{"materiais-para-construcao-civil/materiais", "Materiais", "materiais_construcao", "construction_material_type", "Materiais"},

	// Tecnologia
	{"tecnologia/informatica", "Informática", "tecnologia", "tech_type", "Informática"},
	{"tecnologia/telefonia", "Telefonia", "tecnologia", "tech_type", "Telefonia"},
	{"tecnologia/eletronicos", "Eletrônicos", "tecnologia", "tech_type", "Eletrônicos"},

	// Nichados
	{"moveis-e-decoracao", "Móveis e Decoração", "nichados", "specialized_type", "Móveis e Decoração"},
}

// fullStateNames maps spelled-out federation unit names to their two-letter
// codes, for offers that only carry the long form.
var fullStateNames = map[string]string{
	"Acre": "AC", "Alagoas": "AL", "Amapá": "AP", "Amazonas": "AM",
	"Bahia": "BA", "Ceará": "CE", "Distrito Federal": "DF", "Espírito Santo": "ES",
	"Goiás": "GO", "Maranhão": "MA", "Mato Grosso": "MT", "Mato Grosso do Sul": "MS",
	"Minas Gerais": "MG", "Pará": "PA", "Paraíba": "PB", "Paraná": "PR",
	"Pernambuco": "PE", "Piauí": "PI", "Rio de Janeiro": "RJ", "Rio Grande do Norte": "RN",
	"Rio Grande do Sul": "RS", "Rondônia": "RO", "Roraima": "RR", "Santa Catarina": "SC",
	"São Paulo": "SP", "Sergipe": "SE", "Tocantins": "TO",
}
