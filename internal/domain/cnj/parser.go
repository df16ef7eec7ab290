package cnj

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// minYear is the earliest filing year accepted.  The unified numbering
// covers renumbered legacy processes, so pre-resolution years are valid
// back to 1990.
const minYear = 1990

// numberPattern matches the canonical formatted representation with its
// fixed separators: NNNNNNN-DD.AAAA.J.TR.OOOO.
var numberPattern = regexp.MustCompile(`^(\d{7})-(\d{2})\.(\d{4})\.(\d)\.(\d{2})\.(\d{4})$`)

var nonDigits = regexp.MustCompile(`\D`)

// Parser validates CNJ process numbers.  The clock is injectable so the
// upper bound of the year range check is deterministic under test.
type Parser struct {
	clk clock.Clock
}

// NewParser returns a Parser using the given clock.  A nil clock falls
// back to the system clock.
func NewParser(clk clock.Clock) *Parser {
	if clk == nil {
		clk = clock.System()
	}
	return &Parser{clk: clk}
}

// Parse validates input against the full CNJ contract: structural pattern,
// modulo-97 verification digit, known judiciary segment, known tribunal
// within the segment, and filing year within [1990, currentYear+1].
// Returns a typed *errors.AppError on any violation.
func (p *Parser) Parse(input string) (*ProcessNumber, error) {
	trimmed := strings.TrimSpace(input)

	m := numberPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, errors.New(errors.ErrCodeFormatInvalid,
			"número de processo fora do padrão NNNNNNN-DD.AAAA.J.TR.OOOO")
	}

	seq, check, yearStr, segStr, tr, origin := m[1], m[2], m[3], m[4], m[5], m[6]

	year, _ := strconv.Atoi(yearStr)
	segment, _ := strconv.Atoi(segStr)

	expected := verificationDigits(seq, yearStr, segStr, tr, origin)
	if expected != check {
		return nil, errors.Newf(errors.ErrCodeChecksumMismatch,
			"dígito verificador inválido: esperado %q, encontrado %q", expected, check)
	}

	segName, ok := SegmentName(segment)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSegment,
			"segmento do judiciário desconhecido: %d", segment)
	}

	tribName, region, ok := tribunalName(segment, tr)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownTribunal,
			"tribunal %q não existe no segmento %d (%s)", tr, segment, segName)
	}

	maxYear := p.clk.Now().Year() + 1
	if year < minYear || year > maxYear {
		return nil, errors.Newf(errors.ErrCodeYearOutOfRange,
			"ano %d fora do intervalo [%d, %d]", year, minYear, maxYear)
	}

	return &ProcessNumber{
		Sequential:   seq,
		CheckDigits:  check,
		Year:         year,
		Segment:      segment,
		TribunalID:   tr,
		OriginUnit:   origin,
		SegmentName:  segName,
		TribunalName: tribName,
		TribunalCode: segStr + "." + tr,
		Region:       region,
	}, nil
}

// Validate wraps Parse into a ValidationResult for callers that surface
// the outcome directly, such as the HTTP validation endpoint.
func (p *Parser) Validate(input string) ValidationResult {
	number, err := p.Parse(input)
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Code:   string(errors.GetCode(err)),
			Reason: err.Error(),
		}
	}
	return ValidationResult{Valid: true, Number: number}
}

// verificationDigits computes the two-character modulo-97 check over the
// concatenation sequential+year+segment+tr+origin+"00", reducing the digit
// string with Horner's method and zero-padding the result of 98-r.
func verificationDigits(seq, year, segment, tr, origin string) string {
	digits := seq + year + segment + tr + origin + "00"
	r := 0
	for i := 0; i < len(digits); i++ {
		r = (r*10 + int(digits[i]-'0')) % 97
	}
	return fmt.Sprintf("%02d", 98-r)
}

// Format re-inserts the canonical separators into a clean 20-digit string.
// It performs no validation beyond length and digit-only content; callers
// needing full validation must Parse the result.  Returns "" when the
// input is not exactly 20 digits.
func Format(cleanDigits string) string {
	if len(cleanDigits) != 20 {
		return ""
	}
	for i := 0; i < 20; i++ {
		if cleanDigits[i] < '0' || cleanDigits[i] > '9' {
			return ""
		}
	}
	return cleanDigits[0:7] + "-" + cleanDigits[7:9] + "." + cleanDigits[9:13] + "." +
		cleanDigits[13:14] + "." + cleanDigits[14:16] + "." + cleanDigits[16:20]
}

// ExtractDigits strips every non-digit character from s.
func ExtractDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// LooksLikeProcessNumber is a cheap pre-filter: true when s contains
// exactly 20 digits after stripping separators.  It performs no checksum
// or table validation.
func LooksLikeProcessNumber(s string) bool {
	return len(ExtractDigits(s)) == 20
}
