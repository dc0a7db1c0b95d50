package extraction

import (
	"lending/pkg/domain"
	"regexp"
	"strconv"
	"strings"
)

var (
	panPattern     = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)
	aadhaarPattern = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)
	ifscPattern    = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
)

// confidence is the inclusive percentage range of an extraction.
type confidence struct{ min, max int }

var confidences = map[domain.DocumentType]confidence{ //nolint: gochecknoglobals
	domain.DocumentTypeAadhaar:       {min: 80, max: 99},
	domain.DocumentTypePAN:           {min: 85, max: 99},
	domain.DocumentTypeBankStatement: {min: 85, max: 99},
}

// standInFields returns placeholder values for a document type. Identity
// numbers, IFSC and account numbers are replaced with values found in text
// when they match their canonical formats.
func standInFields(docType domain.DocumentType, text string, rnd Rand) map[string]string {
	switch docType {
	case domain.DocumentTypeAadhaar:
		return map[string]string{
			"name":    "Ram Kumar Sharma",
			"number":  firstMatch(aadhaarPattern, text, "1234 5678 9012"),
			"address": "Village Rampur, District Meerut, Uttar Pradesh - 250001",
			"dob":     "15/08/1985",
		}
	case domain.DocumentTypePAN:
		return map[string]string{
			"name":   "RAM KUMAR SHARMA",
			"number": firstMatch(panPattern, strings.ToUpper(text), "ABCDE1234F"),
			"dob":    "15/08/1985",
		}
	default:
		return map[string]string{
			"accountNumber": firstMatch(accountPattern, text, "1234567890"),
			"ifsc":          firstMatch(ifscPattern, strings.ToUpper(text), "SBIN0001234"),
			"balance":       strconv.Itoa(25000 + rnd.IntN(50000)),
			"avgBalance":    strconv.Itoa(20000 + rnd.IntN(40000)),
		}
	}
}

func firstMatch(re *regexp.Regexp, text, fallback string) string {
	if text == "" {
		return fallback
	}
	if m := re.FindString(text); m != "" {
		return m
	}

	return fallback
}

func confidenceFor(docType domain.DocumentType, rnd Rand) int {
	c, ok := confidences[docType]
	if !ok {
		c = confidences[domain.DocumentTypeBankStatement]
	}

	return c.min + rnd.IntN(c.max-c.min+1)
}
