package model

// Listing statuses as the MLS catalog reports them.
const (
	StatusActive  = "Active"
	StatusPending = "Pending"
	StatusClosed  = "Closed"
	StatusExpired = "Expired"
)

// SearchIntent is the structured interpretation of a free-text query.
// It is built once by the interpreter and never mutated afterwards.
type SearchIntent struct {
	PriceMin       *int    `json:"price_min,omitempty"`
	PriceMax       *int    `json:"price_max,omitempty"`
	BedsMin        *int    `json:"beds_min,omitempty"`
	Zip            *string `json:"zip,omitempty"`
	Location       *string `json:"location,omitempty"`
	MLSArea        *string `json:"mls_area,omitempty"`
	MLSAreaNum     *int    `json:"mls_area_num,omitempty"`
	SoldWithinDays *int    `json:"sold_within_days,omitempty"`

	Status         string `json:"status"`
	StatusExplicit bool   `json:"status_explicit"`

	WantLease       bool `json:"want_lease"`
	WantIncome      bool `json:"want_income"`
	WantResidential bool `json:"want_residential"`
	WantCommercial  bool `json:"want_commercial"`
}

// AddressParts holds the normalized tokens extracted from a raw address
// string. Derived once per request, read-only thereafter.
type AddressParts struct {
	Raw             string
	StreetNumber    string
	StreetNameToken string
	CityToken       string
	Zip             string
	// StreetQuery is a compact lowercase string (street number plus the
	// first street-name tokens) used for substring containment matching.
	StreetQuery string
}

// RetrievalAttempt is one filter variant in the relaxation ladder executed
// by the orchestrator. The filter is fixed at construction time; Notes
// explain every constraint dropped relative to the primary attempt.
type RetrievalAttempt struct {
	Label                 string   `json:"label"`
	Filter                string   `json:"-"`
	Notes                 []string `json:"notes,omitempty"`
	RolePreferenceApplied bool     `json:"role_preference_applied"`
}
