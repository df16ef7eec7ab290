// Package cnj implements parsing and validation of Brazilian CNJ process
// numbers in the unified numbering format NNNNNNN-DD.AAAA.J.TR.OOOO
// established by Resolução CNJ nº 65/2008.
package cnj

import "fmt"

// ProcessNumber is a fully validated CNJ process number with its derived
// attributes.  Instances are only produced by Parse and are immutable by
// convention.
type ProcessNumber struct {
	// Raw digit groups, exactly as they appear in the formatted number.
	Sequential  string `json:"sequential"`   // NNNNNNN, 7 digits
	CheckDigits string `json:"check_digits"` // DD, 2 digits
	Year        int    `json:"year"`         // AAAA
	Segment     int    `json:"segment"`      // J, single digit 1..9
	TribunalID  string `json:"tribunal_id"`  // TR, 2 digits
	OriginUnit  string `json:"origin_unit"`  // OOOO, 4 digits

	// Derived attributes.
	SegmentName  string `json:"segment_name"`  // e.g. "Justiça Estadual"
	TribunalName string `json:"tribunal_name"` // e.g. "Tribunal de Justiça de São Paulo"
	TribunalCode string `json:"tribunal_code"` // routing key "J.TR", e.g. "8.26"
	Region       string `json:"region,omitempty"` // "3ª Região" for segments 4 and 5
}

// Formatted returns the canonical NNNNNNN-DD.AAAA.J.TR.OOOO representation.
func (p ProcessNumber) Formatted() string {
	return fmt.Sprintf("%s-%s.%04d.%d.%s.%s",
		p.Sequential, p.CheckDigits, p.Year, p.Segment, p.TribunalID, p.OriginUnit)
}

// CleanDigits returns the 20-digit representation with separators stripped.
func (p ProcessNumber) CleanDigits() string {
	return fmt.Sprintf("%s%s%04d%d%s%s",
		p.Sequential, p.CheckDigits, p.Year, p.Segment, p.TribunalID, p.OriginUnit)
}

// CacheKey returns the key under which query results for this process are
// cached, namespaced by routing code so the same sequential number under
// two tribunals never collides.
func (p ProcessNumber) CacheKey() string {
	return p.TribunalCode + ":" + p.CleanDigits()
}

// ValidationResult is the outcome of Parse for callers that prefer a
// result object over an error value, such as the HTTP validation endpoint.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Number *ProcessNumber `json:"number,omitempty"`
	Code   string         `json:"code,omitempty"`
	Reason string         `json:"reason,omitempty"`
}
