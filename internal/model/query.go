package model

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Role  string `json:"role" binding:"omitempty,oneof=buyer seller investor realtor"`
}

// SearchResponse is the result of POST /search.
type SearchResponse struct {
	Listings  []Listing     `json:"listings"`
	Answer    string        `json:"answer,omitempty"`
	Reasoning []string      `json:"reasoning,omitempty"`
	Intent    *SearchIntent `json:"intent,omitempty"`
	Attempt   string        `json:"retrieval_attempt"`
	Took      int64         `json:"took_ms"`
}

// PricingRequest is the body of POST /pricing and POST /nearby.
type PricingRequest struct {
	Address   string `json:"address" binding:"required"`
	SubjectID string `json:"subject_id"`
	County    string `json:"county"`
	Zip       string `json:"zip"`
}

// PricingResponse is the result of POST /pricing.
type PricingResponse struct {
	PriceRange  *PriceRange `json:"price_range"`
	CompStats   *CompStats  `json:"comp_stats"`
	DealQuality string      `json:"deal_quality,omitempty"`
	Subject     *Listing    `json:"subject,omitempty"`
	Listings    []Listing   `json:"listings"`
	Reasoning   []string    `json:"reasoning"`
}

// SubjectsRequest is the body of POST /pricing/subjects.
type SubjectsRequest struct {
	Query string `json:"query" binding:"required,min=4"`
}

// SubjectsResponse lists candidate subject matches for disambiguation.
type SubjectsResponse struct {
	Subjects []Listing `json:"subjects"`
}

// NearbyResponse is the result of POST /nearby.
type NearbyResponse struct {
	Listings  []Listing `json:"listings"`
	Reasoning []string  `json:"reasoning,omitempty"`
}
