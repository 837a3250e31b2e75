package utils

import (
	"regexp"
	"strings"
	"unicode"

	"plate-registry/internal/domain/plate"
)

// plateTextPattern expects "<UF> <city words> <AAA-9999>" anywhere in the
// text; the leftmost match wins. The city group is lazy and stops at the
// first plate number.
var plateTextPattern = regexp.MustCompile(`([A-Z]{2})\s+([\p{L}\p{M}\p{N}_\s]+?)\s+([A-Z]{3}-[0-9]{4})`)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// foldSpace turns Unicode whitespace (NBSP, em space, vertical tab) into a
// plain space, which is all the pattern's \s accepts.
func foldSpace(r rune) rune {
	if r != ' ' && (unicode.IsSpace(r) || r == '\ufeff') {
		return ' '
	}
	return r
}

// ParsePlateText extracts state, city and plate number from recognized text.
// The second return value is false when the text is not in the expected
// format; no partial result is produced in that case.
func ParsePlateText(raw string) (plate.ParsedPlate, bool) {
	cleaned := strings.TrimSpace(strings.Map(foldSpace, newlineReplacer.Replace(raw)))
	if cleaned == "" {
		return plate.ParsedPlate{}, false
	}

	m := plateTextPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return plate.ParsedPlate{}, false
	}

	return plate.ParsedPlate{
		State:       m[1],
		City:        strings.TrimSpace(m[2]),
		PlateNumber: strings.ReplaceAll(m[3], "-", ""),
	}, true
}

// NormalizePlate uppercases the input and keeps only ASCII letters and digits,
// so "abc-1234" and "ABC 1234" both become "ABC1234".
func NormalizePlate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
