package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rxcompare/price-service/internal/geo"
)

// Field aliases the upstream uses for the same concept across endpoints.
var (
	nameKeys     = []string{"name", "pharmacyName", "pharmacy_name", "displayName", "storeName"}
	priceKeys    = []string{"price", "amount", "discountPrice", "priceAmount", "unitPrice", "value"}
	distanceKeys = []string{"distance", "distanceMiles", "distanceInMiles", "distance_miles"}
	addressKeys  = []string{"address", "address1", "addressLine1", "streetAddress", "street"}
	cityKeys     = []string{"city"}
	stateKeys    = []string{"state", "stateCode", "state_code"}
	zipKeys      = []string{"zip", "zipCode", "zipcode", "postalCode", "postal_code"}
	phoneKeys    = []string{"phone", "phoneNumber", "phone_number", "telephone"}
	latKeys      = []string{"latitude", "lat"}
	lngKeys      = []string{"longitude", "lng", "lon", "long"}
	open24Keys   = []string{"open24H", "open24Hours", "open24hours", "is24Hours", "twentyFourHours"}
	driveUpKeys  = []string{"driveUpWindow", "driveUp", "driveThru", "hasDriveThru"}
	handicapKeys = []string{"handicapAccess", "handicapAccessible", "wheelchairAccess"}
)

var distanceRe = regexp.MustCompile(`(?i)^\s*([0-9]*\.?[0-9]+)\s*(miles?|mi|kilometers?|km)?\.?\s*$`)

// first returns the first alias present on obj.
func first(obj gjson.Result, keys []string) gjson.Result {
	if !obj.IsObject() {
		return gjson.Result{}
	}
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// firstOf tries each object in turn.
func firstOf(keys []string, objs ...gjson.Result) gjson.Result {
	for _, o := range objs {
		if r := first(o, keys); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result) string {
	if !r.Exists() || r.IsObject() || r.IsArray() {
		return ""
	}
	return strings.TrimSpace(r.String())
}

// parseMoney accepts 12.99, "12.99", "$12.99", "1,012.50 USD" or an object
// carrying one of the price aliases.
func parseMoney(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return roundCents(r.Float()), r.Float() >= 0 && !math.IsInf(r.Float(), 0)
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		s = strings.TrimSuffix(strings.TrimSuffix(s, "USD"), "usd")
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return roundCents(v), true
	case gjson.JSON:
		if r.IsObject() {
			return parseMoney(first(r, priceKeys))
		}
	}
	return 0, false
}

// parseDistance accepts a bare number or "1.2 miles", "1.2 mi", "2 km".
func parseDistance(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		if r.Float() < 0 {
			return 0, false
		}
		return r.Float(), true
	case gjson.String:
		m := distanceRe.FindStringSubmatch(r.Str)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if unit := strings.ToLower(m[2]); strings.HasPrefix(unit, "k") {
			v = geo.KmToMiles(v)
		}
		return v, true
	}
	return 0, false
}

func parseCoordinate(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		return v, err == nil
	}
	return 0, false
}

// parseBool accepts JSON booleans, 0/1 and the usual yes/no spellings.
func parseBool(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Int() != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.Str)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

func parseInt(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return int(r.Int()), r.Int() > 0
	case gjson.String:
		v, err := strconv.Atoi(strings.TrimSpace(r.Str))
		return v, err == nil && v > 0
	}
	return 0, false
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
