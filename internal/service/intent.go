package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/utils"
)

// Interpreter parses free-text search queries into a structured intent.
// It is a fixed chain of deterministic extractors; the same input always
// yields the same intent. No I/O, no hidden state.
type Interpreter struct{}

// NewInterpreter creates a query interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

var (
	reBetween = regexp.MustCompile(`(?i)\bbetween\s+\$?([0-9][0-9,.]*)\s*([km])?\s+and\s+\$?([0-9][0-9,.]*)\s*([km])?`)
	reMax     = regexp.MustCompile(`(?i)(?:\b(?:under|below|less than|at most|up to|no more than)\b|<=|<)\s*\$?([0-9][0-9,.]*)\s*([km])?`)
	reMin     = regexp.MustCompile(`(?i)(?:\b(?:over|above|more than|at least|starting at)\b|>=|>)\s*\$?([0-9][0-9,.]*)\s*([km])?`)

	reBeds = regexp.MustCompile(`(?i)\b([0-9]+)\s*\+?\s*(?:bed(?:room)?s?|br)\b`)
	reZip  = regexp.MustCompile(`\b([0-9]{5})\b`)

	reClosed  = regexp.MustCompile(`(?i)\b(?:sold|closed|recently sold)\b`)
	rePending = regexp.MustCompile(`(?i)\b(?:pending|under contract)\b`)
	reExpired = regexp.MustCompile(`(?i)\bexpired\b`)
	reActive  = regexp.MustCompile(`(?i)\b(?:active|available|on the market|for sale)\b`)

	reLastYear   = regexp.MustCompile(`(?i)\b(?:past|last)\s+year\b|\blast\s+12\s+months\b`)
	reLastDays   = regexp.MustCompile(`(?i)\b(?:past|last)\s+([0-9]+)\s+days?\b`)
	reLastMonths = regexp.MustCompile(`(?i)\b(?:past|last)\s+([0-9]+)\s+months?\b`)

	reLease   = regexp.MustCompile(`(?i)\b(?:for rent|for lease|to rent|lease|leasing)\b`)
	reRental  = regexp.MustCompile(`(?i)\brentals?\b`)
	reMonthly = regexp.MustCompile(`(?i)(?:\bper\s+month\b|/\s*mo(?:nth)?\b|\ba\s+month\b|\bmonthly\b)`)

	reIncome      = regexp.MustCompile(`(?i)\b(?:duplex(?:es)?|triplex|fourplex|multi[\s-]?family|multifamily|income propert(?:y|ies)|investment propert(?:y|ies)|apartment building)\b`)
	reResidential = regexp.MustCompile(`(?i)\b(?:single[\s-]?family|house|houses|home|homes|residential)\b`)
	reCommercial  = regexp.MustCompile(`(?i)\b(?:commercial|retail|office|industrial|warehouse)\b`)

	reLocClause = regexp.MustCompile(`(?i)\b(?:in|near|around)\s+(?:the\s+)?(.+)$`)
	reZipOnly   = regexp.MustCompile(`^[0-9]{5}$`)
	reAreaNum   = regexp.MustCompile(`(?i)\barea\s+([0-9]+)\b`)

	reDirArea = regexp.MustCompile(`(?i)\b(?:(north\s*east|north\s*west|south\s*east|south\s*west|ne|nw|se|sw)\s+(erie|millcreek)|(erie|millcreek)\s+(north\s*east|north\s*west|south\s*east|south\s*west))\b`)
)

// locationStopWords end an "in X" / "near X" clause so trailing constraint
// phrases are not absorbed into the location term.
var locationStopWords = map[string]bool{
	"with": true, "under": true, "below": true, "over": true, "above": true,
	"between": true, "near": true, "around": true, "within": true,
	"last": true, "past": true, "sell": true, "sold": true, "for": true,
}

// counties is the fixed allowlist scanned as the location fallback.
var counties = []string{"erie", "crawford", "warren"}

// baseLabels maps directional-shorthand base terms to their canonical form.
var baseLabels = map[string]string{"erie": "Erie", "millcreek": "Millcreek"}

var directions = map[string]string{
	"ne": "Northeast", "northeast": "Northeast", "north east": "Northeast",
	"nw": "Northwest", "northwest": "Northwest", "north west": "Northwest",
	"se": "Southeast", "southeast": "Southeast", "south east": "Southeast",
	"sw": "Southwest", "southwest": "Southwest", "south west": "Southwest",
}

// Parse extracts a structured intent from a free-text query.
func (p *Interpreter) Parse(query string) model.SearchIntent {
	q := strings.TrimSpace(query)
	intent := model.SearchIntent{Status: model.StatusActive}
	if q == "" {
		return intent
	}

	p.parseStatus(q, &intent)
	p.parseWindow(q, &intent)
	p.parsePrices(q, &intent)
	p.parseZip(q, &intent)
	p.parseBeds(q, &intent)
	p.parseLocation(q, &intent)
	p.parseMLSArea(q, &intent)
	p.parsePropertyTypes(q, &intent)
	p.resolveLease(q, &intent)

	return intent
}

func (p *Interpreter) parseStatus(q string, intent *model.SearchIntent) {
	switch {
	case reClosed.MatchString(q):
		intent.Status = model.StatusClosed
	case rePending.MatchString(q):
		intent.Status = model.StatusPending
	case reExpired.MatchString(q):
		intent.Status = model.StatusExpired
	case reActive.MatchString(q):
		intent.Status = model.StatusActive
	default:
		return
	}
	intent.StatusExplicit = true
}

func (p *Interpreter) parseWindow(q string, intent *model.SearchIntent) {
	if reLastYear.MatchString(q) {
		days := 365
		intent.SoldWithinDays = &days
		return
	}
	if m := reLastDays.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			intent.SoldWithinDays = &n
		}
		return
	}
	if m := reLastMonths.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			days := n * 30
			intent.SoldWithinDays = &days
		}
	}
}

// parsePrices resolves price bounds. A "between X and Y" pattern wins
// outright; the independent under/over patterns are not evaluated when it
// matches.
func (p *Interpreter) parsePrices(q string, intent *model.SearchIntent) {
	if m := reBetween.FindStringSubmatch(q); m != nil {
		if v, ok := parseMoney(m[1], m[2]); ok {
			intent.PriceMin = &v
		}
		if v, ok := parseMoney(m[3], m[4]); ok {
			intent.PriceMax = &v
		}
		return
	}
	if m := reMax.FindStringSubmatch(q); m != nil {
		if v, ok := parseMoney(m[1], m[2]); ok {
			intent.PriceMax = &v
		}
	}
	if m := reMin.FindStringSubmatch(q); m != nil {
		if v, ok := parseMoney(m[1], m[2]); ok {
			intent.PriceMin = &v
		}
	}
}

func (p *Interpreter) parseZip(q string, intent *model.SearchIntent) {
	if m := reZip.FindStringSubmatch(q); m != nil {
		zip := m[1]
		intent.Zip = &zip
	}
}

func (p *Interpreter) parseBeds(q string, intent *model.SearchIntent) {
	if m := reBeds.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			intent.BedsMin = &n
		}
	}
}

func (p *Interpreter) parseLocation(q string, intent *model.SearchIntent) {
	if m := reLocClause.FindStringSubmatch(q); m != nil {
		term := cutAtStopWord(m[1])
		switch {
		case term == "":
			// fall through to county scan
		case reZipOnly.MatchString(term):
			// a bare 5-digit location is a zip, not a place name
			if intent.Zip == nil {
				intent.Zip = &term
			}
			return
		case strings.Contains(term, "university") || strings.Contains(term, "campus"):
			// campus proximity is an unstable geo signal; discard it
			return
		default:
			intent.Location = &term
			return
		}
	}

	// No explicit clause: fall back to scanning for an allowlisted county.
	lq := strings.ToLower(q)
	for _, county := range counties {
		if strings.Contains(lq, county) {
			c := county
			intent.Location = &c
			return
		}
	}
}

// fillerWords are trimmed from the end of a cut location term; they carry
// no geo meaning when a stop word ended the clause mid-sentence.
var fillerWords = map[string]bool{"in": true, "the": true, "a": true, "an": true, "and": true}

// cutAtStopWord truncates a captured location tail at the first constraint
// keyword, then normalizes it.
func cutAtStopWord(tail string) string {
	var kept []string
	for _, word := range strings.Fields(utils.Normalize(tail)) {
		if locationStopWords[word] {
			break
		}
		kept = append(kept, word)
	}
	for len(kept) > 0 && fillerWords[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, " ")
}

func (p *Interpreter) parseMLSArea(q string, intent *model.SearchIntent) {
	if m := reDirArea.FindStringSubmatch(q); m != nil {
		dir, base := m[1], m[2]
		if dir == "" {
			base, dir = m[3], m[4]
		}
		dir = strings.ToLower(strings.Join(strings.Fields(dir), " "))
		base = strings.ToLower(base)
		if label, ok := directions[dir]; ok {
			area := baseLabels[base] + " " + label
			intent.MLSArea = &area
			// The directional label already carries the sub-area; keep the
			// base term only so location does not over-constrain.
			intent.Location = &base
		}
	}

	if m := reAreaNum.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			intent.MLSAreaNum = &n
			// "area 5" carries no geo meaning on its own
			if intent.Location != nil && utils.Normalize(*intent.Location) == "area "+m[1] {
				intent.Location = nil
			}
		}
	}
}

func (p *Interpreter) parsePropertyTypes(q string, intent *model.SearchIntent) {
	intent.WantIncome = reIncome.MatchString(q)
	intent.WantResidential = reResidential.MatchString(q)
	intent.WantCommercial = reCommercial.MatchString(q)
}

// resolveLease disambiguates lease intent from rental-property intent.
// Explicit lease phrasing always wins. A bare "rental(s)" mention becomes
// lease intent only with a monthly-price phrase or a price_max consistent
// with monthly rents; otherwise it means income property.
func (p *Interpreter) resolveLease(q string, intent *model.SearchIntent) {
	if reLease.MatchString(q) {
		intent.WantLease = true
		return
	}
	if !reRental.MatchString(q) {
		return
	}
	if reMonthly.MatchString(q) || (intent.PriceMax != nil && *intent.PriceMax <= 10000) {
		intent.WantLease = true
		return
	}
	intent.WantIncome = true
}

// parseMoney converts a matched number plus optional k/m suffix to a whole
// dollar amount.
func parseMoney(num, suffix string) (int, bool) {
	cleaned := strings.ReplaceAll(num, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(suffix) {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	if v <= 0 {
		return 0, false
	}
	return int(v), true
}
