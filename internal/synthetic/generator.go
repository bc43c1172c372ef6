package synthetic

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/rxcompare/price-service/internal/geo"
	"github.com/rxcompare/price-service/internal/types"
)

const (
	MinOffers = 5
	MaxOffers = 20

	minPriceCents = 1000
	maxPriceCents = 10000
	minDistance   = 0.1
)

type chain struct {
	name    string
	phone   string
	open24H bool
	driveUp bool
}

// roster is the fixed set of chains synthetic offers are drawn from.
var roster = []chain{
	{"CVS Pharmacy", "800-746-7287", true, true},
	{"Walgreens", "800-925-4733", true, true},
	{"Walmart Pharmacy", "800-273-3455", false, false},
	{"Rite Aid", "800-748-3243", false, true},
	{"Kroger Pharmacy", "800-576-4377", false, true},
	{"Costco Pharmacy", "800-774-2678", false, false},
	{"Target Pharmacy", "800-440-0680", false, false},
	{"Safeway Pharmacy", "877-723-3929", false, false},
	{"Publix Pharmacy", "800-242-1227", false, true},
	{"H-E-B Pharmacy", "800-432-3113", false, true},
	{"Albertsons Pharmacy", "877-932-7948", false, false},
	{"Sam's Club Pharmacy", "888-746-7726", false, false},
}

var streets = []string{"Main St", "Oak Ave", "Maple Dr", "Park Blvd", "Cedar Ln", "Elm St", "Lakeview Rd", "Washington Ave"}

// Generator produces plausible placeholder offers for when the upstream
// cannot answer. Output depends only on the query key and location, so the
// same inputs always give the same offers.
type Generator struct{}

// NewGenerator returns a generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns between MinOffers and MaxOffers mock offers. It never fails.
func (g *Generator) Generate(query types.DrugQuery, loc types.Location) []types.PharmacyOffer {
	rng := rand.New(rand.NewPCG(seed(query, loc)))

	// Offers stay within the radius, even one tighter than minDistance.
	radius := loc.RadiusMiles
	if !(radius > 0) || math.IsInf(radius, 0) {
		radius = minDistance
	}
	floor := math.Min(minDistance, radius)

	n := MinOffers + rng.IntN(MaxOffers-MinOffers+1)
	offers := make([]types.PharmacyOffer, 0, n)
	for i := 0; i < n; i++ {
		c := roster[rng.IntN(len(roster))]

		cents := minPriceCents + rng.IntN(maxPriceCents-minPriceCents+1)
		distance := floor + rng.Float64()*(radius-floor)
		distance = math.Floor(distance*100) / 100
		if distance < floor {
			distance = floor
		}
		bearing := rng.Float64() * 360
		lat, lng := geo.Destination(loc.Latitude, loc.Longitude, bearing, distance)

		offers = append(offers, types.PharmacyOffer{
			PharmacyName:   c.name,
			Price:          float64(cents) / 100,
			DistanceMiles:  distance,
			Address:        fmt.Sprintf("%d %s", 100+rng.IntN(9900), streets[rng.IntN(len(streets))]),
			PostalCode:     loc.PostalCode,
			Phone:          c.phone,
			Latitude:       &lat,
			Longitude:      &lng,
			Open24H:        c.open24H,
			DriveUpWindow:  c.driveUp,
			HandicapAccess: rng.IntN(4) != 0,
			DataSource:     types.DataSourceMock,
		})
	}
	return offers
}

// seed hashes the query key and the location into the two PCG seed words.
func seed(query types.DrugQuery, loc types.Location) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(query.Key()))
	s1 := h.Sum64()

	h.Reset()
	fmt.Fprintf(h, "%.4f|%.4f|%.2f|%s", loc.Latitude, loc.Longitude, loc.RadiusMiles, loc.PostalCode)
	s2 := h.Sum64()
	return s1, s2
}
