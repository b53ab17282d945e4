package model

import "time"

// Listing is the normalized view of one MLS property record.
type Listing struct {
	ID           string   `json:"id"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	County       string   `json:"county"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Price        float64  `json:"price"`
	ListPrice    float64  `json:"list_price,omitempty"`
	ClosePrice   float64  `json:"close_price,omitempty"`
	Beds         int      `json:"beds"`
	Baths        float64  `json:"baths"`
	PropertyType string   `json:"property_type"`
	Status       string   `json:"status"`
	Sqft         float64  `json:"sqft"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	MediaURLs    []string `json:"media_urls,omitempty"`

	CloseDate time.Time `json:"-"`
	Modified  time.Time `json:"-"`
}

// DedupeListings drops records whose id was already seen, preserving order.
func DedupeListings(listings []Listing) []Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}
