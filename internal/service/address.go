package service

import (
	"strings"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/utils"
)

// ResolveAddress parses a free-form address string into normalized matching
// tokens. Segment 0 of the comma split is the street portion; the remainder
// holds city/state/zip. Deterministic, no I/O.
func ResolveAddress(raw string) model.AddressParts {
	parts := model.AddressParts{Raw: strings.TrimSpace(raw)}

	segments := strings.Split(parts.Raw, ",")
	street := segments[0]
	rest := ""
	if len(segments) > 1 {
		rest = strings.Join(segments[1:], " ")
	}

	parts.StreetNumber = utils.LeadingDigits(street)
	parts.Zip = utils.FirstDigitRun(parts.Raw, 5)

	streetTokens := streetNameTokens(street, parts.StreetNumber)
	if len(streetTokens) > 0 {
		parts.StreetNameToken = streetTokens[0]
	}

	// "county" in the rest segment signals a county name, not a city.
	if !strings.Contains(strings.ToLower(rest), "county") {
		for _, tok := range utils.Tokens(rest, 3) {
			if utils.LeadingDigits(tok) == "" {
				parts.CityToken = tok
				break
			}
		}
	}

	query := streetTokens
	if len(query) > 3 {
		query = query[:3]
	}
	if parts.StreetNumber != "" {
		query = append([]string{parts.StreetNumber}, query...)
	}
	parts.StreetQuery = strings.Join(query, " ")

	return parts
}

// streetNameTokens returns the normalized street-name candidates: tokens of
// length >= 3 from the street portion, the leading number excluded.
func streetNameTokens(street, number string) []string {
	trimmed := strings.TrimSpace(street)
	trimmed = strings.TrimPrefix(trimmed, number)
	return utils.Tokens(trimmed, 3)
}
