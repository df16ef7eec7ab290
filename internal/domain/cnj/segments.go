package cnj

import "fmt"

// Judiciary segment codes as defined by the CNJ numbering resolution.
const (
	SegmentSTF       = 1 // Supremo Tribunal Federal
	SegmentCNJ       = 2 // Conselho Nacional de Justiça
	SegmentSTJ       = 3 // Superior Tribunal de Justiça
	SegmentFederal   = 4 // Justiça Federal (TRFs)
	SegmentLabor     = 5 // Justiça do Trabalho (TRTs)
	SegmentElectoral = 6 // Justiça Eleitoral (TREs)
	SegmentMilitaryU = 7 // Justiça Militar da União
	SegmentState     = 8 // Justiça Estadual (TJs)
	SegmentMilitaryS = 9 // Justiça Militar Estadual (TJMs)
)

// segmentNames maps the J digit to the judiciary branch display name.
var segmentNames = map[int]string{
	SegmentSTF:       "Supremo Tribunal Federal",
	SegmentCNJ:       "Conselho Nacional de Justiça",
	SegmentSTJ:       "Superior Tribunal de Justiça",
	SegmentFederal:   "Justiça Federal",
	SegmentLabor:     "Justiça do Trabalho",
	SegmentElectoral: "Justiça Eleitoral",
	SegmentMilitaryU: "Justiça Militar da União",
	SegmentState:     "Justiça Estadual",
	SegmentMilitaryS: "Justiça Militar Estadual",
}

// stateNames maps the TR code of segments 6 and 8 to the federated unit.
// The ordering follows the official IBGE-alphabetical unit numbering used
// by the CNJ tables.
var stateNames = map[string]string{
	"01": "Acre", "02": "Alagoas", "03": "Amapá", "04": "Amazonas",
	"05": "Bahia", "06": "Ceará", "07": "Distrito Federal e Territórios",
	"08": "Espírito Santo", "09": "Goiás", "10": "Maranhão",
	"11": "Mato Grosso", "12": "Mato Grosso do Sul", "13": "Minas Gerais",
	"14": "Pará", "15": "Paraíba", "16": "Paraná", "17": "Pernambuco",
	"18": "Piauí", "19": "Rio de Janeiro", "20": "Rio Grande do Norte",
	"21": "Rio Grande do Sul", "22": "Rondônia", "23": "Roraima",
	"24": "Santa Catarina", "25": "Sergipe", "26": "São Paulo",
	"27": "Tocantins",
}

// SegmentName returns the display name for a judiciary segment digit, or
// false when the digit is not a known segment.
func SegmentName(segment int) (string, bool) {
	name, ok := segmentNames[segment]
	return name, ok
}

// tribunalName resolves the TR code within a segment to the tribunal
// display name and, for the regional segments (4 and 5), the region label.
// ok is false when the TR code does not exist in the segment's table.
func tribunalName(segment int, tr string) (name, region string, ok bool) {
	switch segment {
	case SegmentSTF:
		if tr == "00" {
			return "Supremo Tribunal Federal", "", true
		}
	case SegmentCNJ:
		if tr == "00" {
			return "Conselho Nacional de Justiça", "", true
		}
	case SegmentSTJ:
		if tr == "00" {
			return "Superior Tribunal de Justiça", "", true
		}
	case SegmentFederal:
		// Six TRF regions.
		if n, valid := trNumber(tr, 1, 6); valid {
			region = fmt.Sprintf("%dª Região", n)
			return fmt.Sprintf("Tribunal Regional Federal da %dª Região", n), region, true
		}
	case SegmentLabor:
		// Twenty-four TRT regions.
		if n, valid := trNumber(tr, 1, 24); valid {
			region = fmt.Sprintf("%dª Região", n)
			return fmt.Sprintf("Tribunal Regional do Trabalho da %dª Região", n), region, true
		}
	case SegmentElectoral:
		if state, found := stateNames[tr]; found {
			return "Tribunal Regional Eleitoral de " + state, "", true
		}
	case SegmentMilitaryU:
		// TR 00 is the STM itself; 01..12 are the Circunscrições
		// Judiciárias Militares.
		if tr == "00" {
			return "Superior Tribunal Militar", "", true
		}
		if n, valid := trNumber(tr, 1, 12); valid {
			return fmt.Sprintf("Justiça Militar da União - %dª CJM", n), "", true
		}
	case SegmentState:
		if state, found := stateNames[tr]; found {
			return "Tribunal de Justiça de " + state, "", true
		}
	case SegmentMilitaryS:
		// Only three states maintain a standing military court.
		switch tr {
		case "13":
			return "Tribunal de Justiça Militar de Minas Gerais", "", true
		case "21":
			return "Tribunal de Justiça Militar do Rio Grande do Sul", "", true
		case "26":
			return "Tribunal de Justiça Militar de São Paulo", "", true
		}
	}
	return "", "", false
}

// TribunalEntry is one row of the flattened segment+TR tables, used to
// seed the routing registry.
type TribunalEntry struct {
	Segment int
	TR      string
	Code    string // "J.TR"
	Name    string
}

// AllTribunals enumerates every valid segment+TR combination.
func AllTribunals() []TribunalEntry {
	var out []TribunalEntry
	for segment := SegmentSTF; segment <= SegmentMilitaryS; segment++ {
		for n := 0; n <= 99; n++ {
			tr := fmt.Sprintf("%02d", n)
			name, _, ok := tribunalName(segment, tr)
			if !ok {
				continue
			}
			out = append(out, TribunalEntry{
				Segment: segment,
				TR:      tr,
				Code:    fmt.Sprintf("%d.%s", segment, tr),
				Name:    name,
			})
		}
	}
	return out
}

// trNumber parses a two-digit TR code and checks it falls in [min, max].
func trNumber(tr string, min, max int) (int, bool) {
	if len(tr) != 2 || tr[0] < '0' || tr[0] > '9' || tr[1] < '0' || tr[1] > '9' {
		return 0, false
	}
	n := int(tr[0]-'0')*10 + int(tr[1]-'0')
	return n, n >= min && n <= max
}
