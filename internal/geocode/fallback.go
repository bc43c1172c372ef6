package geocode

import (
	"math"

	"github.com/rxcompare/price-service/internal/geo"
)

// regionAnchors maps the leading ZIP digit to a representative city of that
// USPS region.
var regionAnchors = [10][2]float64{
	{42.36, -71.06},  // 0 Boston
	{40.71, -74.00},  // 1 New York
	{38.90, -77.04},  // 2 Washington
	{33.75, -84.39},  // 3 Atlanta
	{39.77, -86.16},  // 4 Indianapolis
	{44.98, -93.27},  // 5 Minneapolis
	{38.63, -90.20},  // 6 St. Louis
	{32.78, -96.80},  // 7 Dallas
	{39.74, -104.99}, // 8 Denver
	{37.77, -122.42}, // 9 San Francisco
}

// Approximate derives a plausible coordinate from a validated postal code
// without any network access. The same code always yields the same point.
func Approximate(postalCode string) Coordinates {
	d := func(i int) float64 { return float64(postalCode[i] - '0') }

	anchor := regionAnchors[postalCode[0]-'0']
	lat, lng := anchor[0], anchor[1]

	lat += (d(1) - 5) * 0.5
	lng += (d(2) - 5) * 0.5
	lat += (d(3) - 5) * 0.05
	lng += (d(4) - 5) * 0.05

	return Coordinates{
		Latitude:  geo.ClampLatitude(round4(lat)),
		Longitude: geo.ClampLongitude(round4(lng)),
		Source:    SourceFallback,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
