package types

import (
	"strconv"
	"strings"

	"github.com/rxcompare/price-service/internal/matching"
)

// DataSource tags where an offer came from
type DataSource string

const (
	DataSourceUpstream DataSource = "upstream"
	DataSourceMock     DataSource = "mock"
)

// DrugQuery identifies the drug to price: either by name or by GSN, never both.
type DrugQuery struct {
	Name     string `json:"drugName,omitempty"`
	GSN      int    `json:"gsn,omitempty"`
	Quantity int    `json:"quantity,omitempty"` // 0 lets the upstream pick its default quantity
}

// ByName reports whether the query is the name variant.
func (q DrugQuery) ByName() bool {
	return strings.TrimSpace(q.Name) != ""
}

// ByGSN reports whether the query is the GSN variant.
func (q DrugQuery) ByGSN() bool {
	return q.GSN != 0
}

// NormalizedName returns the name in its comparison form.
func (q DrugQuery) NormalizedName() string {
	return matching.NormalizeDrugName(q.Name)
}

// Key returns a stable identity for the query, used for logging and seeding.
func (q DrugQuery) Key() string {
	if q.ByGSN() {
		return "gsn:" + strconv.Itoa(q.GSN)
	}
	return "name:" + q.NormalizedName()
}

// Validate enforces that exactly one variant is populated.
func (q DrugQuery) Validate() error {
	switch {
	case q.ByName() && q.ByGSN():
		return &ValidationError{Field: "query", Reason: "provide either drugName or gsn, not both"}
	case !q.ByName() && !q.ByGSN():
		return &ValidationError{Field: "query", Reason: "drugName or gsn is required"}
	case q.GSN < 0:
		return &ValidationError{Field: "gsn", Reason: "must be a positive integer"}
	case q.Quantity < 0:
		return &ValidationError{Field: "quantity", Reason: "must be non-negative"}
	}
	return nil
}

// Location is the point prices are searched around.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PostalCode  string  `json:"postalCode,omitempty"`
	RadiusMiles float64 `json:"radiusMiles"`
}

// NeedsGeocoding reports whether coordinates must be derived from the postal code.
func (l Location) NeedsGeocoding() bool {
	return l.Latitude == 0 && l.Longitude == 0 && l.PostalCode != ""
}

// HasPoint reports whether the location carries coordinates or a postal
// code to derive them from. (0,0) counts as unset.
func (l Location) HasPoint() bool {
	return l.Latitude != 0 || l.Longitude != 0 || l.PostalCode != ""
}

// Validate checks radius and coordinate ranges.
func (l Location) Validate() error {
	if !(l.RadiusMiles > 0) {
		return &ValidationError{Field: "radiusMiles", Reason: "must be greater than 0"}
	}
	if !l.HasPoint() {
		return &ValidationError{Field: "location", Reason: "latitude and longitude or postalCode is required"}
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	return nil
}

// PharmacyOffer is one pharmacy's price quote, normalized to a common shape.
type PharmacyOffer struct {
	PharmacyName   string     `json:"pharmacyName"`
	Price          float64    `json:"price"` // dollars, rounded to cents
	DistanceMiles  float64    `json:"distanceMiles"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	PostalCode     string     `json:"postalCode"`
	Phone          string     `json:"phone"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Open24H        bool       `json:"open24H"`
	DriveUpWindow  bool       `json:"driveUpWindow"`
	HandicapAccess bool       `json:"handicapAccess"`
	DataSource     DataSource `json:"dataSource"`
}

// DrugOption is one form, strength or quantity variant of a drug.
type DrugOption struct {
	Label    string `json:"label"`
	GSN      int    `json:"gsn,omitempty"`
	Selected bool   `json:"selected"`
}

// DrugOptions is an ordered list with at most one selected entry.
type DrugOptions []DrugOption

// Default returns the selected option, or the first one when none is marked.
func (o DrugOptions) Default() (DrugOption, bool) {
	for _, opt := range o {
		if opt.Selected {
			return opt, true
		}
	}
	if len(o) == 0 {
		return DrugOption{}, false
	}
	return o[0], true
}

// DrugRecord describes the drug the offers were priced for.
type DrugRecord struct {
	BrandName   string      `json:"brandName"`
	GenericName string      `json:"genericName"`
	GSN         int         `json:"gsn,omitempty"`
	Forms       DrugOptions `json:"forms"`
	Strengths   DrugOptions `json:"strengths"`
	Quantities  DrugOptions `json:"quantities"`
}

// ResolutionResult is the only value the engine returns to callers.
type ResolutionResult struct {
	RequestID    string          `json:"requestId,omitempty"`
	Query        DrugQuery       `json:"query"`
	Location     Location        `json:"location"`
	Offers       []PharmacyOffer `json:"offers"`
	Drug         *DrugRecord     `json:"drug,omitempty"`
	UsedMockData bool            `json:"usedMockData"`
	Warnings     []string        `json:"warnings"`
}
