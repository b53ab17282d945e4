package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/config"
	"github.com/lakeshore-labs/compscout/internal/model"
)

// ErrUpstream marks catalog or token failures so callers can distinguish
// "upstream broke" from "no rows matched".
var ErrUpstream = errors.New("mls upstream error")

// selectFields is the $select projection requested on every catalog query.
const selectFields = "ListingKey,UnparsedAddress,City,CountyOrParish,StateOrProvince,PostalCode," +
	"ListPrice,ClosePrice,BedroomsTotal,BathroomsTotalInteger,LivingArea,PropertyType," +
	"StandardStatus,CloseDate,ModificationTimestamp,MLSAreaMajor,Latitude,Longitude"

// PropertyQuery describes one catalog request.
type PropertyQuery struct {
	Filter      string
	OrderBy     string
	Top         int
	Skip        int
	ExpandMedia bool
}

// MLSRepository queries the remote MLS catalog over its OData protocol.
type MLSRepository struct {
	cfg        *config.CatalogConfig
	tokens     *tokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMLSRepository creates a catalog repository.
func NewMLSRepository(cfg *config.CatalogConfig, logger *zap.Logger) *MLSRepository {
	return &MLSRepository{
		cfg:    cfg,
		tokens: newTokenSource(cfg, logger),
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// odata wire types; the catalog uses PascalCase RESO field names.

type odataResponse struct {
	Value []propertyRecord `json:"value"`
}

type mediaRecord struct {
	MediaURL         string `json:"MediaURL"`
	PreferredPhotoYN bool   `json:"PreferredPhotoYN"`
	Order            int    `json:"Order"`
}

type propertyRecord struct {
	ListingKey            string        `json:"ListingKey"`
	UnparsedAddress       string        `json:"UnparsedAddress"`
	City                  string        `json:"City"`
	CountyOrParish        string        `json:"CountyOrParish"`
	StateOrProvince       string        `json:"StateOrProvince"`
	PostalCode            string        `json:"PostalCode"`
	ListPrice             float64       `json:"ListPrice"`
	ClosePrice            float64       `json:"ClosePrice"`
	BedroomsTotal         int           `json:"BedroomsTotal"`
	BathroomsTotalInteger float64       `json:"BathroomsTotalInteger"`
	LivingArea            float64       `json:"LivingArea"`
	PropertyType          string        `json:"PropertyType"`
	StandardStatus        string        `json:"StandardStatus"`
	CloseDate             string        `json:"CloseDate"`
	ModificationTimestamp string        `json:"ModificationTimestamp"`
	MLSAreaMajor          string        `json:"MLSAreaMajor"`
	Latitude              *float64      `json:"Latitude"`
	Longitude             *float64      `json:"Longitude"`
	Media                 []mediaRecord `json:"Media"`
}

// Query executes one catalog request and maps the rows to listings.
func (r *MLSRepository) Query(ctx context.Context, q PropertyQuery) ([]model.Listing, error) {
	u, err := url.Parse(r.cfg.BaseURL + "/odata/Property")
	if err != nil {
		return nil, fmt.Errorf("%w: bad catalog base url", ErrUpstream)
	}

	params := u.Query()
	if q.Filter != "" {
		params.Set("$filter", q.Filter)
	}
	params.Set("$select", selectFields)
	if q.ExpandMedia {
		params.Set("$expand", "Media")
	}
	if q.OrderBy != "" {
		params.Set("$orderby", q.OrderBy)
	}
	if q.Top > 0 {
		params.Set("$top", fmt.Sprintf("%d", q.Top))
	}
	if q.Skip > 0 {
		params.Set("$skip", fmt.Sprintf("%d", q.Skip))
	}
	u.RawQuery = params.Encode()

	token, err := r.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body odataResponse
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			// Log the status, never the URL: the filter can embed addresses.
			r.logger.Warn("catalog returned non-success status", zap.Int("status", resp.StatusCode))
			return backoff.Permanent(fmt.Errorf("catalog status %d", resp.StatusCode))
		}
		return json.NewDecoder(resp.Body).Decode(&body)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return nil, fmt.Errorf("%w: catalog fetch failed", ErrUpstream)
	}

	listings := make([]model.Listing, 0, len(body.Value))
	for _, rec := range body.Value {
		listings = append(listings, mapRecord(rec))
	}
	return model.DedupeListings(listings), nil
}

// GetByKey fetches a single record by its listing key.
func (r *MLSRepository) GetByKey(ctx context.Context, key string) (*model.Listing, error) {
	rows, err := r.Query(ctx, PropertyQuery{
		Filter:      Eq(FieldListingKey, key),
		Top:         1,
		ExpandMedia: true,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func mapRecord(rec propertyRecord) model.Listing {
	l := model.Listing{
		ID:           rec.ListingKey,
		Address:      rec.UnparsedAddress,
		City:         rec.City,
		County:       rec.CountyOrParish,
		State:        rec.StateOrProvince,
		Zip:          rec.PostalCode,
		ListPrice:    rec.ListPrice,
		ClosePrice:   rec.ClosePrice,
		Beds:         rec.BedroomsTotal,
		Baths:        rec.BathroomsTotalInteger,
		PropertyType: rec.PropertyType,
		Status:       rec.StandardStatus,
		Sqft:         rec.LivingArea,
		Lat:          rec.Latitude,
		Lng:          rec.Longitude,
	}

	// Display price: the close price once sold, the list price otherwise.
	if l.Status == model.StatusClosed && l.ClosePrice > 0 {
		l.Price = l.ClosePrice
	} else {
		l.Price = l.ListPrice
	}

	if t, err := time.Parse(time.RFC3339, rec.CloseDate); err == nil {
		l.CloseDate = t
	} else if t, err := time.Parse("2006-01-02", rec.CloseDate); err == nil {
		l.CloseDate = t
	}
	if t, err := time.Parse(time.RFC3339, rec.ModificationTimestamp); err == nil {
		l.Modified = t
	}

	l.MediaURLs = orderMedia(rec.Media)
	if len(l.MediaURLs) > 0 {
		l.ImageURL = l.MediaURLs[0]
	}
	return l
}

// orderMedia sorts media by preferred photo first, then catalog order.
func orderMedia(media []mediaRecord) []string {
	if len(media) == 0 {
		return nil
	}
	sorted := make([]mediaRecord, len(media))
	copy(sorted, media)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PreferredPhotoYN != sorted[j].PreferredPhotoYN {
			return sorted[i].PreferredPhotoYN
		}
		return sorted[i].Order < sorted[j].Order
	})

	urls := make([]string, 0, len(sorted))
	for _, m := range sorted {
		if m.MediaURL != "" {
			urls = append(urls, m.MediaURL)
		}
	}
	return urls
}
