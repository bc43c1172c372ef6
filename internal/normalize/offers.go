package normalize

import (
	"errors"
	"math"

	"github.com/tidwall/gjson"

	"github.com/rxcompare/price-service/internal/geo"
	"github.com/rxcompare/price-service/internal/types"
)

var errInvalidJSON = errors.New("payload is not valid JSON")

// wrapperKeys are envelope objects some endpoints put around the payload.
var wrapperKeys = []string{"data", "result"}

// Offers maps an upstream price payload into offers. It fails only when raw is
// not valid JSON; unknown shapes and unusable records produce no offers.
//
// Two list shapes are recognized, at the top level or inside a data/result
// envelope: a flat "pharmacies" array of pharmacy records carrying a price,
// and a nested "pharmacyPrices" array of {pharmacy, price} pairs. origin, when
// given, is used to compute distances the upstream left out.
func Offers(raw []byte, source string, origin *types.Location) ([]types.PharmacyOffer, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &types.SchemaError{Source: source, Err: errInvalidJSON}
	}

	root := gjson.ParseBytes(raw)
	records, nested := findOfferList(root)

	offers := make([]types.PharmacyOffer, 0, len(records))
	for _, rec := range records {
		var offer types.PharmacyOffer
		var ok bool
		if nested {
			offer, ok = nestedOffer(rec, origin)
		} else {
			offer, ok = flatOffer(rec, origin)
		}
		if ok {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

// findOfferList locates the first non-empty record array and reports whether
// it uses the nested {pharmacy, price} shape. An empty list in one envelope
// does not hide a populated one in another.
func findOfferList(root gjson.Result) ([]gjson.Result, bool) {
	candidates := envelopes(root)
	for _, c := range candidates {
		if list := nonEmpty(c.Get("pharmacyPrices")); list != nil {
			return list, true
		}
		if list := nonEmpty(c.Get("pharmacies")); list != nil {
			return list, false
		}
	}
	// Some endpoints answer with a bare array of pharmacy records.
	for _, c := range candidates {
		if list := nonEmpty(c); list != nil {
			return list, false
		}
	}
	return nil, false
}

func nonEmpty(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	if list := r.Array(); len(list) > 0 {
		return list
	}
	return nil
}

func flatOffer(rec gjson.Result, origin *types.Location) (types.PharmacyOffer, bool) {
	if !rec.IsObject() {
		return types.PharmacyOffer{}, false
	}
	// A flat record sometimes nests the pharmacy details one level down
	// while keeping the price alongside.
	details := rec.Get("pharmacy")
	if !details.IsObject() {
		details = gjson.Result{}
	}
	return buildOffer(rec, firstOf(priceKeys, rec), details, origin)
}

func nestedOffer(rec gjson.Result, origin *types.Location) (types.PharmacyOffer, bool) {
	if !rec.IsObject() {
		return types.PharmacyOffer{}, false
	}
	pharmacy := rec.Get("pharmacy")
	if !pharmacy.IsObject() {
		return types.PharmacyOffer{}, false
	}
	price := rec.Get("price")
	if !price.Exists() {
		price = firstOf(priceKeys, rec)
	}
	return buildOffer(pharmacy, price, rec, origin)
}

// buildOffer reads pharmacy fields from primary, falling back to secondary,
// and takes the price from price.
func buildOffer(primary, price, secondary gjson.Result, origin *types.Location) (types.PharmacyOffer, bool) {
	name := str(firstOf(nameKeys, primary, secondary))
	if name == "" {
		return types.PharmacyOffer{}, false
	}
	amount, ok := parseMoney(price)
	if !ok {
		return types.PharmacyOffer{}, false
	}

	offer := types.PharmacyOffer{
		PharmacyName:   name,
		Price:          amount,
		Phone:          str(firstOf(phoneKeys, primary, secondary)),
		Open24H:        parseBool(firstOf(open24Keys, primary, secondary)),
		DriveUpWindow:  parseBool(firstOf(driveUpKeys, primary, secondary)),
		HandicapAccess: parseBool(firstOf(handicapKeys, primary, secondary)),
		DataSource:     types.DataSourceUpstream,
	}

	// Address may be a string or an object holding the postal parts.
	addr := firstOf(addressKeys, primary, secondary)
	if addr.IsObject() {
		offer.Address = str(first(addr, addressKeys[1:]))
		offer.City = str(first(addr, cityKeys))
		offer.State = str(first(addr, stateKeys))
		offer.PostalCode = str(first(addr, zipKeys))
	} else {
		offer.Address = str(addr)
	}
	if offer.City == "" {
		offer.City = str(firstOf(cityKeys, primary, secondary))
	}
	if offer.State == "" {
		offer.State = str(firstOf(stateKeys, primary, secondary))
	}
	if offer.PostalCode == "" {
		offer.PostalCode = str(firstOf(zipKeys, primary, secondary))
	}

	lat, latOK := parseCoordinate(firstOf(latKeys, primary, secondary))
	lng, lngOK := parseCoordinate(firstOf(lngKeys, primary, secondary))
	if latOK && lngOK && geo.ValidCoordinates(lat, lng) {
		offer.Latitude = &lat
		offer.Longitude = &lng
	}

	if d, ok := parseDistance(firstOf(distanceKeys, primary, secondary)); ok {
		offer.DistanceMiles = roundCents(d)
	} else if offer.Latitude != nil && origin != nil && !(origin.Latitude == 0 && origin.Longitude == 0) {
		offer.DistanceMiles = roundCents(geo.HaversineMiles(origin.Latitude, origin.Longitude, lat, lng))
	}
	if math.IsNaN(offer.DistanceMiles) {
		offer.DistanceMiles = 0
	}

	return offer, true
}
